package api

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/okian/chordscan/internal/adapters/workspace"
	"github.com/okian/chordscan/internal/domain/model"
	"github.com/okian/chordscan/pkg/metrics"
)

const (
	uploadField = "file"
	// multipartSlack covers boundaries and part headers around the file.
	multipartSlack = 1 << 20
	// sniffLen matches mimetype's default read limit.
	sniffLen = 3072
	filePerm = 0o644
)

var (
	scoreExts = extSet(".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".pdf", ".omr")
	audioExts = extSet(".mp3", ".wav", ".m4a", ".flac", ".ogg", ".aac")
)

func extSet(exts ...string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[e] = true
	}
	return m
}

// uploadPolicy is the allow-list and size cap for one upload route.
type uploadPolicy struct {
	name        string
	maxBytes    int64
	unsupported string
	allowed     func(name, declared, sniffed string) bool
}

func scorePolicy(maxBytes int64) uploadPolicy {
	return uploadPolicy{
		name:        "score",
		maxBytes:    maxBytes,
		unsupported: "Unsupported file type",
		allowed: func(name, _, _ string) bool {
			return scoreExts[strings.ToLower(filepath.Ext(name))]
		},
	}
}

func audioPolicy(maxBytes int64) uploadPolicy {
	return uploadPolicy{
		name:        "audio",
		maxBytes:    maxBytes,
		unsupported: "Unsupported audio type",
		allowed: func(name, declared, sniffed string) bool {
			return strings.HasPrefix(declared, "audio/") ||
				audioExts[strings.ToLower(filepath.Ext(name))] ||
				strings.HasPrefix(sniffed, "audio/")
		},
	}
}

// intake streams the multipart "file" field to disk, enforcing the policy
// before anything downstream sees the upload.
type intake struct {
	dir    string
	policy uploadPolicy
	now    func() time.Time
}

// receive stores the upload and describes it. Failures are *model.Error
// values or ErrEmptyUpload / ErrBadMultipart.
func (in *intake) receive(w http.ResponseWriter, r *http.Request) (model.Input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, in.policy.maxBytes+multipartSlack)

	mr, err := r.MultipartReader()
	if err != nil {
		return model.Input{}, fmt.Errorf("%w: %w", ErrBadMultipart, err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return model.Input{}, ErrEmptyUpload
		}
		if err != nil {
			return model.Input{}, in.readError(err)
		}
		if part.FormName() != uploadField {
			_ = part.Close()
			continue
		}
		defer part.Close()
		return in.store(part)
	}
}

func (in *intake) store(part *multipart.Part) (model.Input, error) {
	name := part.FileName()
	if name == "" {
		return model.Input{}, ErrEmptyUpload
	}
	declared := part.Header.Get("Content-Type")

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(part, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return model.Input{}, in.readError(err)
	}
	if n == 0 {
		return model.Input{}, ErrEmptyUpload
	}
	head = head[:n]
	sniffed := mimetype.Detect(head).String()

	if !in.policy.allowed(name, declared, sniffed) {
		return model.Input{}, model.NewKind(model.KindUnsupportedInputType, in.policy.unsupported)
	}

	path, f, err := in.create(name)
	if err != nil {
		return model.Input{}, model.WrapKind(model.KindIO, "could not store upload", err)
	}

	size, err := in.copy(f, head, part)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = model.WrapKind(model.KindIO, "could not store upload", closeErr)
	}
	if err != nil {
		_ = os.Remove(path)
		return model.Input{}, err
	}

	metrics.RecordUploadBytes(in.policy.name, size)
	return model.Input{
		Path:         path,
		OriginalName: name,
		Size:         size,
		MIME:         declared,
		DetectedMIME: sniffed,
	}, nil
}

// create opens a new file for name. Two uploads of the same name within
// one millisecond get a random infix instead of overwriting each other.
func (in *intake) create(name string) (string, *os.File, error) {
	path := filepath.Join(in.dir, workspace.StampedName(in.now(), "-", name))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if errors.Is(err, fs.ErrExist) {
		path = filepath.Join(in.dir, workspace.StampedName(in.now(), "-", uuid.NewString()[:8]+"-"+name))
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	}
	if err != nil {
		return "", nil, err
	}
	return path, f, nil
}

// copy writes head and the rest of src, failing once the cap is exceeded.
func (in *intake) copy(dst io.Writer, head []byte, src io.Reader) (int64, error) {
	if int64(len(head)) > in.policy.maxBytes {
		return 0, in.tooLarge()
	}
	if _, err := dst.Write(head); err != nil {
		return 0, model.WrapKind(model.KindIO, "could not store upload", err)
	}
	rest := in.policy.maxBytes - int64(len(head))
	n, err := io.Copy(dst, io.LimitReader(src, rest+1))
	if err != nil {
		return 0, in.readError(err)
	}
	if n > rest {
		return 0, in.tooLarge()
	}
	return int64(len(head)) + n, nil
}

func (in *intake) readError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return in.tooLarge()
	}
	return model.WrapKind(model.KindIO, "could not read upload", err)
}

func (in *intake) tooLarge() error {
	return model.NewKind(model.KindFileTooLarge,
		fmt.Sprintf("File exceeds the %d MB %s upload limit", in.policy.maxBytes>>20, in.policy.name))
}
