package edit

import (
	"encoding/json"
	"fmt"

	"github.com/gogpu/darkroom/mask"
)

// DocumentVersion is the current sidecar format version.
const DocumentVersion = 1

// The sidecar document is versioned JSON. Serialization is non-destructive:
// a serialized state deserializes to a render-identical state (bit-exact
// floats, bit-exact bitmap planes). Deserialization is tolerant per-field:
// an out-of-range parameter falls back to that field's identity default and
// an unknown adjustment kind is dropped with the rest of the document kept,
// so a sidecar written by a newer version still loads.

type document struct {
	Version int        `json:"version"`
	Groups  []groupDoc `json:"groups"`
}

type groupDoc struct {
	Label       string          `json:"label,omitempty"`
	Opacity     float64         `json:"opacity"`
	Mask        *mask.Mask      `json:"mask,omitempty"`
	Adjustments []adjustmentDoc `json:"adjustments"`
}

type adjustmentDoc struct {
	Kind   Kind            `json:"kind"`
	Params json.RawMessage `json:"params"`
}

// MarshalState serializes a state to a sidecar document.
func MarshalState(s State) ([]byte, error) {
	doc := document{Version: DocumentVersion, Groups: make([]groupDoc, s.Len())}
	for i, g := range s.Groups() {
		gd := groupDoc{
			Label:       g.Label,
			Opacity:     g.Opacity,
			Mask:        g.Mask,
			Adjustments: make([]adjustmentDoc, len(g.Adjustments)),
		}
		for j, a := range g.Adjustments {
			params, err := json.Marshal(a)
			if err != nil {
				return nil, fmt.Errorf("edit: marshal %s: %w", a.Kind(), err)
			}
			gd.Adjustments[j] = adjustmentDoc{Kind: a.Kind(), Params: params}
		}
		doc.Groups[i] = gd
	}
	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalState parses a sidecar document back into a state.
//
// Malformed JSON or an incompatible structure is an error; malformed
// values inside a structurally sound document are not. Out-of-range fields
// reset to their identity defaults, unknown adjustment kinds are dropped,
// and a group whose mask fails validation loads as a global group.
func UnmarshalState(data []byte) (State, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return State{}, fmt.Errorf("edit: parse sidecar: %w", err)
	}
	if doc.Version <= 0 || doc.Version > DocumentVersion {
		return State{}, fmt.Errorf("edit: unsupported sidecar version %d", doc.Version)
	}

	groups := make([]Group, 0, len(doc.Groups))
	for _, gd := range doc.Groups {
		g := Group{
			Label:   gd.Label,
			Opacity: rangeCheck(gd.Opacity, 0, 1, 1),
			Mask:    gd.Mask,
		}
		if g.Mask != nil && g.Mask.Validate() != nil {
			g.Mask = nil
		}
		for _, ad := range gd.Adjustments {
			a, err := unmarshalAdjustment(ad)
			if err != nil {
				// Unknown kind or unreadable params: drop the adjustment,
				// keep the document.
				continue
			}
			g.Adjustments = append(g.Adjustments, a)
		}
		groups = append(groups, g)
	}
	return State{groups: groups}, nil
}

func unmarshalAdjustment(doc adjustmentDoc) (Adjustment, error) {
	var a Adjustment
	switch doc.Kind {
	case KindExposure:
		a = &Exposure{}
	case KindContrast:
		a = &Contrast{}
	case KindWhiteBalance:
		a = &WhiteBalance{}
	case KindTone:
		a = &Tone{}
	case KindPresence:
		a = &Presence{}
	case KindToneCurve:
		a = &ToneCurve{}
	case KindHSL:
		a = &HSL{}
	case KindColorWheels:
		a = &ColorWheels{}
	case KindSharpen:
		a = &Sharpen{}
	case KindNoiseReduction:
		a = &NoiseReduction{}
	case KindVignette:
		a = &Vignette{}
	case KindGrain:
		a = &Grain{}
	case KindLensCorrection:
		a = &LensCorrection{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, doc.Kind)
	}
	if len(doc.Params) > 0 {
		if err := json.Unmarshal(doc.Params, a); err != nil {
			return nil, fmt.Errorf("edit: parse %s params: %w", doc.Kind, err)
		}
	}
	return deref(a).Sanitize(), nil
}

// deref converts the pointer used for unmarshaling back to the value form
// the rest of the package traffics in.
func deref(a Adjustment) Adjustment {
	switch v := a.(type) {
	case *Exposure:
		return *v
	case *Contrast:
		return *v
	case *WhiteBalance:
		return *v
	case *Tone:
		return *v
	case *Presence:
		return *v
	case *ToneCurve:
		return *v
	case *HSL:
		return *v
	case *ColorWheels:
		return *v
	case *Sharpen:
		return *v
	case *NoiseReduction:
		return *v
	case *Vignette:
		return *v
	case *Grain:
		return *v
	case *LensCorrection:
		return *v
	}
	return a
}
