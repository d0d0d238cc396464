package installer

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const downloadChunkSize = 64 * 1024

// DownloadProgressFn receives the byte counts after each chunk. total is
// -1 when the server does not send a Content-Length.
type DownloadProgressFn func(downloaded, total int64)

// Download streams a release archive into downloadsDir, reporting byte
// progress as it goes. The file is written under its remote name and
// the final path is returned.
func (c *Client) Download(release Release, downloadsDir string, progress DownloadProgressFn) (string, error) {
	if release.DownloadURL == "" {
		return "", fmt.Errorf("release %s has no download URL", release.TagName)
	}
	if err := os.MkdirAll(downloadsDir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create downloads directory: %w", err)
	}

	resp, err := c.http.R().SetDoNotParseResponse(true).Get(release.DownloadURL)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		return "", fmt.Errorf("download returned HTTP %d", resp.StatusCode())
	}

	dest := filepath.Join(downloadsDir, filepath.Base(release.DownloadURL))
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("unable to create %s: %w", dest, err)
	}

	total := resp.RawResponse.ContentLength
	var downloaded int64
	buf := make([]byte, downloadChunkSize)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				out.Close()
				os.Remove(dest)
				return "", fmt.Errorf("unable to write %s: %w", dest, writeErr)
			}
			downloaded += int64(n)
			if progress != nil {
				progress(downloaded, total)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(dest)
			return "", fmt.Errorf("download interrupted: %w", readErr)
		}
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("unable to finish %s: %w", dest, err)
	}
	return dest, nil
}

// ListDownloaded returns the zip archives already present in
// downloadsDir, newest first by modification time.
func ListDownloaded(downloadsDir string) ([]string, error) {
	entries, err := os.ReadDir(downloadsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read downloads directory: %w", err)
	}

	type archive struct {
		path    string
		modTime int64
	}
	var archives []archive
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".zip") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		archives = append(archives, archive{
			path:    filepath.Join(downloadsDir, entry.Name()),
			modTime: info.ModTime().UnixNano(),
		})
	}
	sort.Slice(archives, func(i, j int) bool { return archives[i].modTime > archives[j].modTime })

	paths := make([]string, len(archives))
	for i, a := range archives {
		paths[i] = a.path
	}
	return paths, nil
}

// RequiredSpace sums the uncompressed sizes of the archive entries, the
// amount of free space an extraction needs.
func RequiredSpace(archivePath string) (int64, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, fmt.Errorf("unable to open %s: %w", archivePath, err)
	}
	defer reader.Close()

	var total int64
	for _, entry := range reader.File {
		total += int64(entry.UncompressedSize64)
	}
	return total, nil
}
