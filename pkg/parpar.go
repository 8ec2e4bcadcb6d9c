package mmt

import (
	"fmt"
	"strings"
)

// ParPar is the configuration record that fully determines a Parameters
// instance. Treat it as a value: NewParameters copies it.
type ParPar struct {
	H        float64 // strip pitch proxy
	CTX      int
	CTUV     int
	UVError  float64
	Setup    string // plane types, e.g. "xxuvvuxx"
	IsLarge  bool
	DLM      bool
	GenBG    bool
	Qt       float64 // charge threshold
	Misal    Align
	Corr     Align
	FillVal  bool // build the lookup tables
	ColSkip  int
	PcrepDir string
	Tag      string

	// Zero values select the defaults (8 y bins, 1e-4 slope step, uniform eta bins).
	YBins        int
	ROIStep      float64
	PlaneEtaBins bool

	// AcceptanceTol narrows the theta and phi acceptance on both sides, rad.
	AcceptanceTol float64
}

// Validate normalises the plane-type string to lower case and checks every
// character is one of x, u, v.
func (p *ParPar) Validate() error {
	p.Setup = strings.ToLower(p.Setup)
	if len(p.Setup) == 0 {
		return &ErrPlaneType{Type: ""}
	}
	for _, c := range p.Setup {
		if c != 'x' && c != 'u' && c != 'v' {
			return &ErrPlaneType{Type: string(c)}
		}
	}
	return nil
}

// QPlanes returns the indices of the planes of the given type.
func (p ParPar) QPlanes(planeType string) ([]int, error) {
	return qPlanes(p.Setup, planeType)
}

func qPlanes(setup string, planeType string) ([]int, error) {
	if len(planeType) != 1 {
		return nil, &ErrPlaneType{Type: planeType}
	}
	t := strings.ToLower(planeType)[0]
	if t != 'x' && t != 'u' && t != 'v' {
		return nil, &ErrPlaneType{Type: planeType}
	}
	planes := make([]int, 0, len(setup))
	for i := 0; i < len(setup); i++ {
		c := setup[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c == t {
			planes = append(planes, i)
		}
	}
	return planes, nil
}

// PrintPars builds the parameter part of a table file name. Entries in hide
// are GcmKey variable indices whose fields are left out.
func (p ParPar) PrintPars(hide []int) string {
	show := make([]bool, gcmVarMax)
	for i := range show {
		show[i] = true
	}
	for _, h := range hide {
		if h < 0 || h >= gcmVarMax {
			continue
		}
		show[h] = false
		show[gcmMis] = false
	}
	var b strings.Builder
	if show[gcmBG] {
		fmt.Fprintf(&b, "_h%s", formatG(p.H))
	}
	if show[gcmCT] {
		fmt.Fprintf(&b, "_ctx%d_ctuv%d", p.CTX, p.CTUV)
	}
	if show[gcmBG] {
		fmt.Fprintf(&b, "_uverr%s", formatG(p.UVError))
	}
	fmt.Fprintf(&b, "_set%s_ql%d_qdlm%d", p.Setup, btoi(p.IsLarge), btoi(p.DLM))
	if show[gcmBG] {
		fmt.Fprintf(&b, "_qbg%d", btoi(p.GenBG))
	}
	if show[gcmQt] {
		fmt.Fprintf(&b, "_qt%s", formatG(p.Qt))
	}
	if show[gcmMis] {
		b.WriteString(p.Misal.Print())
		b.WriteString(p.Corr.Print())
	}
	return b.String()
}

func (p ParPar) Detail() string {
	return p.Misal.Detail() + "; " + p.Corr.Detail()
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

const (
	gcmPt = iota
	gcmCT
	gcmMis
	gcmCorrect
	gcmEta
	gcmQt
	gcmBG
	gcmVarMax
)

// GcmKey identifies one configuration of a parameter scan.
type GcmKey struct {
	Pt      int
	CT      int
	Mis     int
	Correct int
	Eta     int
	Qt      int
	BGCode  int
}

func (k GcmKey) VarMax() int {
	return gcmVarMax
}

func (k GcmKey) GetVar(v int) int {
	switch v {
	case gcmPt:
		return k.Pt
	case gcmCT:
		return k.CT
	case gcmMis:
		return k.Mis
	case gcmCorrect:
		return k.Correct
	case gcmEta:
		return k.Eta
	case gcmQt:
		return k.Qt
	case gcmBG:
		return k.BGCode
	}
	return -999
}

func (k *GcmKey) SetVar(v int, val int) {
	switch v {
	case gcmPt:
		k.Pt = val
	case gcmCT:
		k.CT = val
	case gcmMis:
		k.Mis = val
	case gcmCorrect:
		k.Correct = val
	case gcmEta:
		k.Eta = val
	case gcmQt:
		k.Qt = val
	case gcmBG:
		k.BGCode = val
	}
}

// Compare orders keys lexicographically over (pt, ct, mis, correct, eta, qt, bgcode).
func (k GcmKey) Compare(o GcmKey) int {
	for v := 0; v < gcmVarMax; v++ {
		a, b := k.GetVar(v), o.GetVar(v)
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

func (k GcmKey) Less(o GcmKey) bool {
	return k.Compare(o) < 0
}

func (k GcmKey) String() string {
	return fmt.Sprintf("(p%d,C%d,m%d,c%d,e%d,q%d,b%d)", k.Pt, k.CT, k.Mis, k.Correct, k.Eta, k.Qt, k.BGCode)
}
