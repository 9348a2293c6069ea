package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

const Extension = ".gcode"

var (
	ErrUnsupportedTarget = errors.New("unsupported export target")
	ErrExists            = errors.New("file exists with different contents")
	ErrInvalidName       = errors.New("invalid output name")
	ErrOutsideRoot       = errors.New("destination outside the output directory")
)

// Target stores rendered output under a name and returns where it went.
type Target interface {
	Save(ctx context.Context, name string, contents []byte) (string, error)
}

// FileName appends the extension unless name already has it.
func FileName(name string) string {
	if strings.EqualFold(filepath.Ext(name), Extension) {
		return name
	}
	return name + Extension
}

// CheckName rejects names that would leave the target directory or prefix.
func CheckName(name string) error {
	switch {
	case name == "", name == ".", name == "..", strings.ContainsAny(name, `/\`):
		return errors.Wrapf(ErrInvalidName, "%q", name)
	}
	return nil
}

type Options struct {
	// never replace a file with different contents
	Safe     bool
	Stdout   io.Writer
	Region   string
	Endpoint string
}

// Resolve maps a destination to a target: "" or a path is a directory, "-" is
// standard output, file:// and s3://bucket/prefix are URLs. Anything else is
// ErrUnsupportedTarget.
func Resolve(destination string, opts Options) (Target, error) {
	switch {
	case destination == "":
		return &Dir{Path: ".", Safe: opts.Safe}, nil
	case destination == "-":
		if opts.Stdout == nil {
			return nil, errors.Wrap(ErrUnsupportedTarget, "no standard output")
		}
		return &Writer{W: opts.Stdout}, nil
	case !strings.Contains(destination, "://"):
		return &Dir{Path: destination, Safe: opts.Safe}, nil
	}

	u, err := url.Parse(destination)
	if err != nil {
		return nil, errors.Wrapf(ErrUnsupportedTarget, "%v: %v", destination, err)
	}
	switch u.Scheme {
	case "file":
		return &Dir{Path: u.Path, Safe: opts.Safe}, nil
	case "s3":
		if u.Host == "" {
			return nil, errors.Wrapf(ErrUnsupportedTarget, "%v: missing bucket", destination)
		}
		return NewS3(u.Host, strings.TrimPrefix(u.Path, "/"), opts.Region, opts.Endpoint)
	}
	return nil, errors.Wrapf(ErrUnsupportedTarget, "scheme %q", u.Scheme)
}

// ResolveWithin resolves a destination chosen by a remote client. Only
// directories below root are allowed and "" is root itself. URLs and "-" are
// ErrUnsupportedTarget.
func ResolveWithin(root, destination string, opts Options) (Target, error) {
	switch {
	case destination == "":
		return &Dir{Path: root, Safe: opts.Safe}, nil
	case destination == "-", strings.Contains(destination, "://"):
		return nil, errors.Wrapf(ErrUnsupportedTarget, "%v: only directories below the output directory", destination)
	case !filepath.IsLocal(destination):
		return nil, errors.Wrapf(ErrOutsideRoot, "%q", destination)
	}
	return &Dir{Path: filepath.Join(root, destination), Safe: opts.Safe}, nil
}

type Dir struct {
	Path string
	Safe bool
}

func (d *Dir) Save(ctx context.Context, name string, contents []byte) (string, error) {
	if err := CheckName(name); err != nil {
		return "", err
	}
	if err := os.MkdirAll(d.Path, os.ModePerm); err != nil {
		return "", errors.Wrapf(err, "could not create output directory %v", d.Path)
	}
	f := filepath.Join(d.Path, FileName(name))
	original, err := os.ReadFile(f)
	if err == nil {
		if bytes.Equal(original, contents) {
			return f, nil // no need to update
		}
		if d.Safe {
			return "", errors.Wrap(ErrExists, f)
		}
	}
	if err := os.WriteFile(f, contents, 0644); err != nil {
		return "", errors.Wrapf(err, "could not write file %v", f)
	}
	return f, nil
}

type Writer struct {
	W io.Writer
}

func (w *Writer) Save(ctx context.Context, name string, contents []byte) (string, error) {
	if _, err := w.W.Write(contents); err != nil {
		return "", errors.Wrap(err, "could not write output")
	}
	return "-", nil
}

type S3 struct {
	Client s3iface.S3API
	Bucket string
	Prefix string
}

func NewS3(bucket, prefix, region, endpoint string) (*S3, error) {
	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not create an aws session")
	}
	return &S3{Client: s3.New(sess), Bucket: bucket, Prefix: prefix}, nil
}

func (t *S3) Save(ctx context.Context, name string, contents []byte) (string, error) {
	if err := CheckName(name); err != nil {
		return "", err
	}
	key := path.Join(t.Prefix, FileName(name))
	_, err := t.Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(contents),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return "", errors.Wrapf(err, "could not upload to bucket %v", t.Bucket)
	}
	return fmt.Sprintf("s3://%s/%s", t.Bucket, key), nil
}
