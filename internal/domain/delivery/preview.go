package delivery

import (
	"context"
	"errors"

	"foldervault/internal/domain/access"
	"foldervault/internal/domain/catalog"
	"foldervault/internal/pkg/apperr"
	"foldervault/internal/storage"
)

// Reason says why a preview is unavailable.
type Reason string

const (
	ReasonWrongType    Reason = "wrong_type"
	ReasonAccessDenied Reason = "access_denied"
	ReasonNotFound     Reason = "not_found"
)

// Preview is either an inline stream or an Unavailable reason. Unavailable
// is an ordinary outcome, most files are not images.
type Preview struct {
	Download    *Download
	Unavailable Reason
}

func (p Preview) Available() bool { return p.Download != nil }

func unavailable(r Reason) Preview { return Preview{Unavailable: r} }

// PreviewFile needs only Consult. Only image/* content is served; the
// returned error is reserved for storage trouble.
func (g *Gateway) PreviewFile(ctx context.Context, caller access.Caller, fileID string) (Preview, error) {
	file, err := g.resolver.ResolveFile(ctx, caller, fileID, access.Consult)
	switch apperr.KindOf(err) {
	case apperr.KindForbidden:
		return unavailable(ReasonAccessDenied), nil
	case apperr.KindNotFound:
		return unavailable(ReasonNotFound), nil
	}
	if err != nil {
		return Preview{}, err
	}

	if !file.IsImage() {
		return unavailable(ReasonWrongType), nil
	}

	body, err := g.blobs.Open(ctx, file.StorageKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return unavailable(ReasonNotFound), nil
	}
	if err != nil {
		return Preview{}, apperr.Wrap(apperr.KindTransientIO, "Could not read file", err)
	}

	return Preview{Download: &Download{
		Name:        file.Name,
		ContentType: file.ContentType,
		Size:        file.Size,
		Body:        body,
	}}, nil
}

// Kind maps a reason onto the error taxonomy.
func (r Reason) Kind() apperr.Kind {
	switch r {
	case ReasonAccessDenied:
		return apperr.KindForbidden
	case ReasonNotFound:
		return apperr.KindNotFound
	}
	return apperr.KindUnsupportedPreview
}

var _ Resolver = (*catalog.Service)(nil)
