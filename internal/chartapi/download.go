package chartapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// AudioPath is where the audio for a chart is stored inside dir.
func AudioPath(dir, jobID, audioURL string) string {
	ext := ".mp3"
	if u, err := url.Parse(audioURL); err == nil {
		switch e := strings.ToLower(path.Ext(u.Path)); e {
		case ".mp3", ".ogg", ".wav":
			ext = e
		}
	}
	name := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, jobID)
	if name == "" || name == "." || name == ".." {
		name = "audio"
	}
	return filepath.Join(dir, name+ext)
}

// DownloadAudio fetches the audio into dir unless it is already there, and
// returns the local path. A file lock keeps two players from writing the
// same file.
func (c *Client) DownloadAudio(ctx context.Context, jobID, audioURL, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure audio directory: %w", err)
	}
	dst := AudioPath(dir, jobID, audioURL)

	lock := flock.New(dst + ".lock")
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("lock %s: %w", dst, err)
	}
	defer lock.Unlock()

	if _, err := os.Stat(dst); err == nil {
		c.logger.Debug("audio cached", "job", jobID, "path", dst)
		return dst, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.AudioURL(audioURL), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download audio for %s: %w", jobID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("download audio for %s: %s", jobID, resp.Status)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("download audio for %s: %w", jobID, err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("store audio for %s: %w", jobID, err)
	}
	c.logger.Info("audio downloaded", "job", jobID, "path", dst)
	return dst, nil
}
