/*
Copyright © 2019 the Budyko authors.
This file is part of Budyko.

Budyko is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Budyko is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Budyko.  If not, see <http://www.gnu.org/licenses/>.
*/

package budykoutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/google/go-cloud/blob"
	"github.com/google/go-cloud/blob/fileblob"
	"github.com/google/go-cloud/blob/gcsblob"
	"github.com/google/go-cloud/blob/s3blob"
	"github.com/google/go-cloud/gcp"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/budyko/internal/ascgrid"
)

// maxDownloadRetries is the number of times a failed download is retried.
const maxDownloadRetries = 5

// maybeDownload checks if the input is an existing file locally.
// If not, it checks if the file is a URL or a blob storage location.
// If it is, it downloads the file and returns the path to the downloaded
// file. For monthly file templates, it downloads the files for all
// twelve months and returns the template of the downloaded files.
func maybeDownload(ctx context.Context, path string, log logrus.FieldLogger) (string, error) {
	files := expandMonths(path)

	// Check if local file exists. If it does, return the given path.
	if _, err := os.Stat(files[0]); !os.IsNotExist(err) {
		return path, nil
	}

	var get func(ctx context.Context, src string, w io.Writer) error
	switch {
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		get = getHTTP
	case IsBlob(path):
		get = getBlob
	default:
		return path, nil
	}

	// Prepare a temporary directory for the downloads.
	dir, err := ioutil.TempDir("", "budyko")
	if err != nil {
		return path, fmt.Errorf("budykoutil: failed creating temporary download directory: %v", err)
	}
	for _, f := range files {
		dst := filepath.Join(dir, filepath.Base(f))
		log.WithField("file", f).Info("downloading")
		if err := retryDownload(ctx, get, f, dst, log); err != nil {
			return path, fmt.Errorf("budykoutil: downloading %s: %v", f, err)
		}
	}
	return filepath.Join(dir, filepath.Base(path)), nil
}

// statusError is returned for unsuccessful HTTP responses.
type statusError struct {
	url    string
	status string
	code   int
}

func (e statusError) Error() string {
	return fmt.Sprintf("%s: %s", e.url, e.status)
}

// retryDownload copies src to the local file dst, retrying with
// exponential backoff. Client errors are not retried.
func retryDownload(ctx context.Context, get func(context.Context, string, io.Writer) error, src, dst string, log logrus.FieldLogger) error {
	var permanent error
	err := backoff.RetryNotify(
		func() error {
			w, err := os.Create(dst)
			if err != nil {
				permanent = err
				return nil
			}
			err = get(ctx, src, w)
			w.Close()
			if e, ok := err.(statusError); ok && e.code < 500 {
				permanent = err
				return nil
			}
			return err
		},
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxDownloadRetries),
		func(err error, d time.Duration) {
			log.WithField("file", src).Warnf("%v: retrying in %v", err, d)
		},
	)
	if err != nil {
		return err
	}
	return permanent
}

// getHTTP copies the file at the specified URL to w.
func getHTTP(ctx context.Context, path string, w io.Writer) error {
	req, err := http.NewRequest("GET", path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError{url: path, status: resp.Status, code: resp.StatusCode}
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// getBlob copies the specified file from blob storage to w.
func getBlob(ctx context.Context, path string, w io.Writer) error {
	url, err := url.Parse(path)
	if err != nil {
		return err
	}
	bucket, err := OpenBucket(ctx, url.Scheme+"://"+url.Host)
	if err != nil {
		return err
	}
	r, err := bucket.NewReader(ctx, strings.TrimPrefix(url.Path, "/"))
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}

// IsBlob returns whether the given filename represents a blob.
// (i.e., if it starts with `gs://`, 's3://', or 'file://').
func IsBlob(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://") || strings.HasPrefix(path, "file://")
}

// OpenBucket returns the blob storage bucket specified by bucketName,
// where bucketName must be in the format 'provider://name' where provider
// is the name of the storage provider and name is the name of the bucket.
// Even if name contains subdirectories, only the base directory name will be
// used when opening the bucket.
// The currently accepted storage providers are "file" for the local filesystem
// (e.g., for testing), "gs" for Google Cloud Storage, and "s3" for AWS S3.
func OpenBucket(ctx context.Context, bucketName string) (*blob.Bucket, error) {
	url, err := url.Parse(bucketName)
	if err != nil {
		return nil, fmt.Errorf("budykoutil.OpenBucket: %v", err)
	}
	switch url.Scheme {
	case "file":
		return fileblob.NewBucket(url.Hostname())
	case "gs":
		return gsBucket(ctx, url.Hostname())
	case "s3":
		return s3Bucket(ctx, url.Hostname())
	default:
		return nil, fmt.Errorf("budykoutil.OpenBucket: invalid provider %s", url.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	// See here for information on credentials:
	// https://cloud.google.com/docs/authentication/getting-started
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, name, c)
}

// s3Bucket opens an s3 storage bucket. It assumes the following
// environment variables are set: AWS_REGION, AWS_ACCESS_KEY_ID, and
// AWS_SECRET_ACCESS_KEY.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	c := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	s := session.Must(session.NewSession(c))
	return s3blob.OpenBucket(ctx, s, name)
}

// expandMonths returns the files for all twelve months if filename
// is a monthly file template, and returns the given file otherwise.
func expandMonths(filename string) []string {
	if !strings.Contains(filename, ascgrid.MonthPlaceholder) {
		return []string{filename}
	}
	o := make([]string, 12)
	for m := range o {
		o[m] = ascgrid.MonthFile(filename, m)
	}
	return o
}
