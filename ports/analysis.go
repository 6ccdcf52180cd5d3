package ports

import (
	"context"

	"github.com/gomotopia/districtr/domain/contiguity"
	"github.com/gomotopia/districtr/domain/unassigned"
)

// Plan is the editor's current districting assignment. Only its serialized
// form is ever used here.
type Plan interface {
	Serialize() any
}

// ContiguityAnalyzer asks the remote service which islands each district forms
type ContiguityAnalyzer interface {
	RequestContiguity(ctx context.Context, plan Plan) (contiguity.Report, error)
}

// UnassignedAnalyzer asks the remote service for islands of unassigned units
type UnassignedAnalyzer interface {
	RequestUnassigned(ctx context.Context, plan Plan) (unassigned.Report, error)
}

// BBoxLookup resolves a bounding box for a set of unit IDs. ok is false when
// the service answered with an empty or unrecognized box.
type BBoxLookup interface {
	RequestBBox(ctx context.Context, placeID string, ids []string, sep string) (box [4]float64, ok bool, err error)
}
