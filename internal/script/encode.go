package script

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/imamik/k3sforge/internal/errdefs"
)

// MaxUserDataBytes is the largest user data a server accepts.
const MaxUserDataBytes = 32 * 1024

// BootstrapPath is where cloud-init writes the decoded script.
const BootstrapPath = "/usr/local/sbin/k3sforge-bootstrap.sh"

// Encode gzips and base64-encodes the script for transport. The gzip
// header carries no timestamp, so equal scripts encode identically.
func Encode(s *Script) (string, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return "", &errdefs.EncodingError{Artifact: "script " + s.Node.Hostname, Err: err}
	}
	if _, err := zw.Write(s.Content); err != nil {
		return "", &errdefs.EncodingError{Artifact: "script " + s.Node.Hostname, Err: err}
	}
	if err := zw.Close(); err != nil {
		return "", &errdefs.EncodingError{Artifact: "script " + s.Node.Hostname, Err: err}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode.
func Decode(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

type cloudConfig struct {
	WriteFiles []writeFile `yaml:"write_files"`
	RunCmd     [][]string  `yaml:"runcmd"`
}

type writeFile struct {
	Path        string `yaml:"path"`
	Permissions string `yaml:"permissions"`
	Encoding    string `yaml:"encoding"`
	Content     string `yaml:"content"`
}

// UserData wraps the encoded script in a cloud-config document that writes
// and runs it on first boot.
func UserData(s *Script) (string, error) {
	encoded, err := Encode(s)
	if err != nil {
		return "", err
	}
	doc, err := yaml.Marshal(cloudConfig{
		WriteFiles: []writeFile{{
			Path:        BootstrapPath,
			Permissions: "0700",
			Encoding:    "gz+b64",
			Content:     encoded,
		}},
		RunCmd: [][]string{{BootstrapPath}},
	})
	if err != nil {
		return "", &errdefs.EncodingError{Artifact: "user data for " + s.Node.Hostname, Err: err}
	}
	out := "#cloud-config\n" + string(doc)
	if len(out) > MaxUserDataBytes {
		return "", &errdefs.EncodingError{
			Artifact: "user data for " + s.Node.Hostname,
			Err:      fmt.Errorf("%d bytes exceeds the %d byte limit", len(out), MaxUserDataBytes),
		}
	}
	return out, nil
}
