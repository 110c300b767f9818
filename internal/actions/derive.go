package actions

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/gowebpki/jcs"
	"golang.org/x/sync/errgroup"

	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// Derive builds the descriptor of every registered action, ordered by name.
// Descriptions are rendered against the call snapshot, which is only read.
func Derive(ctx context.Context, r *Registry, call *models.CallState) ([]Descriptor, error) {
	names := r.Names()
	out := make([]Descriptor, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		a := r.entries[name].action
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := describe(a, call)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func describe(a Action, call *models.CallState) (Descriptor, error) {
	text, err := a.Doc.Render(a.Name, call)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %v", ErrStaticConfiguration, err)
	}

	d := Descriptor{
		Name:        a.Name,
		Description: text,
		Parameters:  make([]ParameterDescriptor, 0, len(a.Params)),
	}
	for _, p := range a.Params {
		desc, err := p.Doc.Render(a.Name+"."+p.Name, call)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: %v", ErrStaticConfiguration, err)
		}
		d.Parameters = append(d.Parameters, ParameterDescriptor{
			Name:        p.Name,
			Type:        p.Type,
			Description: desc,
			Required:    p.Required(),
			Enum:        slices.Clone(p.Enum),
			Pattern:     p.Pattern,
			Examples:    slices.Clone(p.Doc.Examples),
		})
	}
	return d, nil
}

// Fingerprint is the sha256 of the canonical (RFC 8785) JSON of the descriptors.
func Fingerprint(descriptors []Descriptor) (string, error) {
	raw, err := json.Marshal(descriptors)
	if err != nil {
		return "", fmt.Errorf("marshal descriptors: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize descriptors: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
