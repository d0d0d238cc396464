package sdcard

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/sirupsen/logrus"
)

// Tools that live in sbin on Debian and are therefore missing from a
// normal user's PATH.
var toolPaths = map[string]string{
	"parted":    "/sbin/parted",
	"mkfs.vfat": "/sbin/mkfs.vfat",
	"fsck.vfat": "/sbin/fsck.vfat",
	"partprobe": "/sbin/partprobe",
}

// toolPath resolves a tool to an absolute path, trying the sbin location
// first and falling back to PATH lookup, then the bare name.
func toolPath(name string) string {
	if path, ok := toolPaths[name]; ok {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		return path
	}
	return name
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

func (r runResult) ok() bool { return r.err == nil }

// run executes a command with a timeout, capturing output.
func run(timeout time.Duration, name string, args ...string) runResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logrus.WithField("cmd", name).Debugf("Running: %s %v", name, args)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		logrus.WithField("cmd", name).Debugf("stderr: %s", bytes.TrimSpace(stderr.Bytes()))
	}
	return runResult{
		stdout: stdout.String(),
		stderr: stderr.String(),
		err:    err,
	}
}

// runPrivileged runs a command that needs root. Running as root executes
// it directly; otherwise pkexec prepends a polkit authorisation prompt.
func runPrivileged(timeout time.Duration, name string, args ...string) runResult {
	if os.Geteuid() == 0 {
		return run(timeout, name, args...)
	}
	return run(timeout, "pkexec", append([]string{name}, args...)...)
}

// errorText returns the most useful message from a failed command.
func (r runResult) errorText() string {
	if s := trimmed(r.stderr); s != "" {
		return s
	}
	if s := trimmed(r.stdout); s != "" {
		return s
	}
	if r.err != nil {
		return r.err.Error()
	}
	return ""
}

func trimmed(s string) string {
	return string(bytes.TrimSpace([]byte(s)))
}
