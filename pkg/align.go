package mmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

type AlignType int

const (
	Nominal AlignType = iota
	Misaligned
	Corrected
	CorrectedSim
)

func (a AlignType) String() string {
	switch a {
	case Nominal:
		return "nominal"
	case Misaligned:
		return "misaligned"
	case Corrected:
		return "corrected"
	case CorrectedSim:
		return "corrected-sim"
	default:
		return "Unknown"
	}
}

// Align is a rigid-body alignment of a wedge: translations (s, z, t) in mm
// and rotations (gamma_s, beta_z, alpha_t) in rad.
type Align struct {
	Type      AlignType
	Translate r3.Vec
	Rotate    r3.Vec
}

const alignParMax = 6

// NewAlign zeroes both vectors for a nominal alignment.
func NewAlign(t AlignType, translate, rotate r3.Vec) Align {
	if t == Nominal {
		return Align{Type: Nominal}
	}
	return Align{Type: t, Translate: translate, Rotate: rotate}
}

func (a Align) ParMax() int {
	return alignParMax
}

func (a Align) ParTitle(parNum int, smallUnit bool) (string, error) {
	var title string
	switch parNum {
	case 0:
		title = "#Deltas [mm]"
	case 1:
		title = "#Deltaz [mm]"
	case 2:
		title = "#Deltat [mm]"
	case 3:
		title = "#gamma_{s}"
	case 4:
		title = "#beta_{z}"
	case 5:
		title = "#alpha_{t}"
	default:
		return "", &ErrParameterIndex{Index: parNum}
	}
	if parNum > 2 {
		if smallUnit {
			title += " [mrad]"
		} else {
			title += " [rad]"
		}
	}
	return title, nil
}

var alignParNames = [alignParMax]string{"dts", "dtz", "dtt", "drs", "drz", "drt"}

func (a Align) ParName(parNum int) (string, error) {
	if parNum < 0 || parNum >= alignParMax {
		return "", &ErrParameterIndex{Index: parNum}
	}
	return alignParNames[parNum], nil
}

func (a Align) ParTitleVal(parNum int) (string, error) {
	if parNum < 0 || parNum >= alignParMax {
		return "", &ErrParameterIndex{Index: parNum}
	}
	if a.IsNominal() {
		return "nominal", nil
	}
	v := formatG(a.ParVal(parNum))
	switch parNum {
	case 0:
		return "#Deltas=" + v + " mm", nil
	case 1:
		return "#Deltaz=" + v + " mm", nil
	case 2:
		return "#Deltat=" + v + " mm", nil
	case 3:
		return "#gamma_{s}=" + v + " rad", nil
	case 4:
		return "#beta_{z}=" + v + " rad", nil
	default:
		return "#alpha_{t}=" + v + " rad", nil
	}
}

func (a Align) ParNameVal(parNum int) (string, error) {
	name, err := a.ParName(parNum)
	if err != nil {
		return "", err
	}
	return name + formatG(a.ParVal(parNum)), nil
}

// Print returns the tag used when naming generated tables.
func (a Align) Print() string {
	var tag string
	switch a.Type {
	case Nominal:
		return "_NOM"
	case Misaligned:
		tag = "_MIS"
	case Corrected:
		tag = "_COR"
	case CorrectedSim:
		tag = "_3CR"
	default:
		return tag
	}
	for i := 0; i < alignParMax; i++ {
		if v := a.ParVal(i); v != 0 {
			tag += "_" + alignParNames[i] + formatG(v)
		}
	}
	return tag
}

// ParVal returns the parameter in the order (ds, dz, dt, gamma_s, beta_z, alpha_t).
// Out of range indices return -999.
func (a Align) ParVal(parNum int) float64 {
	switch parNum {
	case 0:
		return a.Translate.X
	case 1:
		return a.Translate.Y
	case 2:
		return a.Translate.Z
	case 3:
		return a.Rotate.X
	case 4:
		return a.Rotate.Y
	case 5:
		return a.Rotate.Z
	}
	return -999
}

// SetVal snaps values below 1e-7 in magnitude to zero.
func (a *Align) SetVal(parNum int, val float64) error {
	if math.Log10(math.Abs(val)) < -7 {
		val = 0
	}
	switch parNum {
	case 0:
		a.Translate.X = val
	case 1:
		a.Translate.Y = val
	case 2:
		a.Translate.Z = val
	case 3:
		a.Rotate.X = val
	case 4:
		a.Rotate.Y = val
	case 5:
		a.Rotate.Z = val
	default:
		return &ErrParameterIndex{Index: parNum}
	}
	return nil
}

func (a Align) Detail() string {
	var b strings.Builder
	switch a.Type {
	case Nominal:
		return "nominal"
	case Misaligned:
		b.WriteString("MIS")
	case Corrected:
		b.WriteString("COR")
	}
	for i := 0; i < alignParMax; i++ {
		v := a.ParVal(i)
		if v == 0 {
			continue
		}
		title, _ := a.ParTitle(i, false)
		fmt.Fprintf(&b, ", %s=%s", title, formatG(v))
	}
	if b.Len() == 0 {
		b.WriteString(" nominal")
	}
	return b.String()
}

func (a Align) IsNominal() bool {
	for i := 0; i < alignParMax; i++ {
		if a.ParVal(i) != 0 {
			return false
		}
	}
	return true
}

// formatG mimics the default six significant digit stream formatting used
// in table names.
func formatG(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
