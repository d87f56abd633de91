package storage

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/paylink/internal"
)

// Assets binds a Store to the two public buckets and the upload limits.
type Assets struct {
	store       Store
	qrisBucket  string
	proofBucket string
	limits      Limits
	now         func() time.Time
	janitor     *Janitor
	logger      *slog.Logger
}

func NewAssets(store Store, qrisBucket, proofBucket string, limits Limits, logger *slog.Logger) *Assets {
	return &Assets{
		store:       store,
		qrisBucket:  qrisBucket,
		proofBucket: proofBucket,
		limits:      limits,
		now:         time.Now,
		logger:      logger,
	}
}

// WithJanitor hands failed deletions to j for background retries.
func (a *Assets) WithJanitor(j *Janitor) *Assets {
	a.janitor = j
	return a
}

// WithClock overrides the time source used for object names.
func (a *Assets) WithClock(now func() time.Time) *Assets {
	a.now = now
	return a
}

func (a *Assets) PutQRIS(ctx context.Context, f *File) (*Object, error) {
	return a.put(ctx, "qris", a.qrisBucket, QRISObjectName(f.Filename, a.now()), f)
}

func (a *Assets) PutProof(ctx context.Context, f *File) (*Object, error) {
	return a.put(ctx, "proof", a.proofBucket, ProofObjectName(f.Filename, a.now()), f)
}

func (a *Assets) put(ctx context.Context, field, bucket, name string, f *File) (*Object, error) {
	prepared, err := PrepareImage(field, f, a.limits)
	if err != nil {
		return nil, err
	}

	publicURL, err := a.store.Upload(ctx, bucket, name, prepared.ContentType, prepared.Body, prepared.Size)
	if err != nil {
		a.logger.Error("asset upload failed", "bucket", bucket, "name", name, "error", err)
		return nil, internal.ErrUploadFailed.WithCause(err)
	}

	return &Object{Bucket: bucket, Name: name, URL: publicURL}, nil
}

func (a *Assets) Remove(ctx context.Context, obj Object) error {
	return a.delete(ctx, obj.Bucket, obj.Name)
}

// RemoveQRIS deletes the QRIS object behind a stored public URL. URLs this store did not
// issue are ignored.
func (a *Assets) RemoveQRIS(ctx context.Context, publicURL string) error {
	return a.removeByURL(ctx, a.qrisBucket, publicURL)
}

func (a *Assets) RemoveProof(ctx context.Context, publicURL string) error {
	return a.removeByURL(ctx, a.proofBucket, publicURL)
}

func (a *Assets) removeByURL(ctx context.Context, bucket, publicURL string) error {
	name, ok := a.store.NameFromURL(bucket, publicURL)
	if !ok {
		a.logger.Warn("skipping removal of foreign asset url", "bucket", bucket, "url", publicURL)
		return nil
	}
	return a.delete(ctx, bucket, name)
}

func (a *Assets) delete(ctx context.Context, bucket, name string) error {
	err := a.store.Delete(ctx, bucket, name)
	if err != nil && a.janitor != nil {
		if qerr := a.janitor.Enqueue(bucket, name); qerr == nil {
			a.logger.Info("asset removal deferred to janitor", "bucket", bucket, "name", name, "error", err)
		}
	}
	return err
}
