// Package lens looks up distortion correction coefficients in
// lensfun-style XML profile databases.
//
// A database maps lens maker and model to per-focal-length calibrations of
// the poly3/poly5 radial distortion model. Matching normalizes maker and
// model strings (case and whitespace insensitive), and coefficients are
// interpolated linearly between the two calibrations nearest the requested
// focal length.
package lens

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gogpu/darkroom/edit"
)

// ErrNotFound reports that no profile matches the requested lens.
var ErrNotFound = errors.New("lens: no matching profile")

// Calibration holds the distortion coefficients measured at one focal
// length.
type Calibration struct {
	Focal float64
	K1    float64
	K2    float64
	K3    float64
}

// Profile is the calibration set for one lens model.
type Profile struct {
	Maker        string
	Model        string
	Calibrations []Calibration // sorted by focal length
}

// Database is an in-memory lens profile database.
type Database struct {
	profiles map[string]*Profile // keyed by normalized "maker\x00model"
}

// XML layout of a lensfun database file, reduced to the elements the
// distortion lookup needs.
type xmlDatabase struct {
	XMLName xml.Name  `xml:"lensdatabase"`
	Lenses  []xmlLens `xml:"lens"`
}

type xmlLens struct {
	Maker       string          `xml:"maker"`
	Model       string          `xml:"model"`
	Calibration *xmlCalibration `xml:"calibration"`
}

type xmlCalibration struct {
	Distortions []xmlDistortion `xml:"distortion"`
}

type xmlDistortion struct {
	Model string  `xml:"model,attr"`
	Focal float64 `xml:"focal,attr"`
	K1    float64 `xml:"k1,attr"`
	K2    float64 `xml:"k2,attr"`
	K3    float64 `xml:"k3,attr"`
	A     float64 `xml:"a,attr"`
	B     float64 `xml:"b,attr"`
	C     float64 `xml:"c,attr"`
}

// Load parses the database file at path.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, fmt.Errorf("lens: read %s: %w", path, err)
	}
	db, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("lens: parse %s: %w", path, err)
	}
	return db, nil
}

// Parse builds a database from lensfun XML.
func Parse(data []byte) (*Database, error) {
	var doc xmlDatabase
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	db := &Database{profiles: make(map[string]*Profile)}
	for _, l := range doc.Lenses {
		if l.Calibration == nil {
			continue
		}
		p := &Profile{Maker: l.Maker, Model: l.Model}
		for _, d := range l.Calibration.Distortions {
			c, ok := toCalibration(d)
			if !ok {
				continue
			}
			p.Calibrations = append(p.Calibrations, c)
		}
		if len(p.Calibrations) == 0 {
			continue
		}
		sort.Slice(p.Calibrations, func(i, j int) bool {
			return p.Calibrations[i].Focal < p.Calibrations[j].Focal
		})
		db.profiles[profileKey(l.Maker, l.Model)] = p
	}
	return db, nil
}

// toCalibration maps one distortion element to poly coefficients. The
// ptlens model's (a, b, c) terms translate to the polynomial form used by
// the pipeline.
func toCalibration(d xmlDistortion) (Calibration, bool) {
	switch d.Model {
	case "poly3":
		return Calibration{Focal: d.Focal, K1: d.K1}, true
	case "poly5":
		return Calibration{Focal: d.Focal, K1: d.K1, K2: d.K2}, true
	case "ptlens":
		return Calibration{Focal: d.Focal, K1: d.C, K2: d.B, K3: d.A}, true
	default:
		return Calibration{}, false
	}
}

// Len returns the number of lens profiles in the database.
func (db *Database) Len() int { return len(db.profiles) }

// Lookup finds the correction for a lens at the given focal length,
// returning it as a ready-to-use adjustment. Coefficients interpolate
// linearly between the two nearest calibrated focal lengths and clamp to
// the calibrated range outside it.
func (db *Database) Lookup(maker, model string, focal float64) (edit.LensCorrection, error) {
	p, ok := db.profiles[profileKey(maker, model)]
	if !ok {
		return edit.LensCorrection{}, fmt.Errorf("%w: %s %s", ErrNotFound, maker, model)
	}

	cals := p.Calibrations
	if focal <= cals[0].Focal {
		return correction(cals[0]), nil
	}
	last := cals[len(cals)-1]
	if focal >= last.Focal {
		return correction(last), nil
	}

	i := sort.Search(len(cals), func(i int) bool { return cals[i].Focal >= focal }) - 1
	lo, hi := cals[i], cals[i+1]
	t := (focal - lo.Focal) / (hi.Focal - lo.Focal)
	return edit.LensCorrection{
		K1: lerp(lo.K1, hi.K1, t),
		K2: lerp(lo.K2, hi.K2, t),
		K3: lerp(lo.K3, hi.K3, t),
	}, nil
}

func correction(c Calibration) edit.LensCorrection {
	return edit.LensCorrection{K1: c.K1, K2: c.K2, K3: c.K3}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// profileKey normalizes maker and model for matching: lowercase with all
// whitespace removed, so "Canon EF 50mm f/1.8" and "canon ef 50mm f/1.8"
// resolve to the same profile.
func profileKey(maker, model string) string {
	return normalize(maker) + "\x00" + normalize(model)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
