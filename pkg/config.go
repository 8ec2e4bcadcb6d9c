package mmt

import "gonum.org/v1/gonum/spatial/r3"

// AlignConfig is the configuration file form of an Align.
type AlignConfig struct {
	Type      AlignType `json:"type"`
	Translate r3.Vec    `json:"translate"`
	Rotate    r3.Vec    `json:"rotate"`
}

func (a AlignConfig) Align() Align {
	return NewAlign(a.Type, a.Translate, a.Rotate)
}

type Configuration struct {
	MaxEvents        int             `json:"max_events"`
	Verbosity        int             `json:"verbosity"`
	FileIn           string          `json:"file_in"`
	FileOut          string          `json:"file_out"`
	PlotDir          string          `json:"plot_dir"`
	Skip             int             `json:"skip"`
	NoDB             bool            `json:"no_db"`
	DBDriver         string          `json:"db_driver"`
	Host             string          `json:"host"`
	User             string          `json:"user"`
	Passwd           string          `json:"pass"`
	DBName           string          `json:"dbname"`
	RunNumber        int             `json:"run_number"`
	Geometry         *StaticGeometry `json:"geometry"`
	NumWorkers       int             `json:"num_workers"`
	WriteData        bool            `json:"write_data"`
	WriteTables      bool            `json:"write_tables"`
	CompressionLevel int             `json:"compression_level"`
	Summary          bool            `json:"summary"`
	CPUProfile       bool            `json:"cpu_profile"`

	WedgeSize    string      `json:"wedge_size"`
	H            float64     `json:"h"`
	CTX          int         `json:"ctx"`
	CTUV         int         `json:"ctuv"`
	UVError      float64     `json:"uv_error"`
	Setup        string      `json:"setup"`
	IsLarge      bool        `json:"is_large"`
	DLM          bool        `json:"dlm"`
	GenBG        bool        `json:"gen_bg"`
	Qt           float64     `json:"qt"`
	Misal        AlignConfig `json:"misal"`
	Corr         AlignConfig `json:"corr"`
	FillTables   bool        `json:"fill_tables"`
	ColSkip      int         `json:"col_skip"`
	PcrepDir     string      `json:"pcrep_dir"`
	Tag          string      `json:"tag"`
	YBins        int         `json:"ybins"`
	ROIStep      float64     `json:"roi_step"`
	PlaneEtaBins bool        `json:"plane_eta_bins"`

	AcceptanceTol float64 `json:"acceptance_tol"`
}

// ParPar extracts the parameter record.
func (c Configuration) ParPar() ParPar {
	return ParPar{
		H:            c.H,
		CTX:          c.CTX,
		CTUV:         c.CTUV,
		UVError:      c.UVError,
		Setup:        c.Setup,
		IsLarge:      c.IsLarge,
		DLM:          c.DLM,
		GenBG:        c.GenBG,
		Qt:           c.Qt,
		Misal:        c.Misal.Align(),
		Corr:         c.Corr.Align(),
		FillVal:      c.FillTables,
		ColSkip:      c.ColSkip,
		PcrepDir:     c.PcrepDir,
		Tag:          c.Tag,
		YBins:        c.YBins,
		ROIStep:      c.ROIStep,
		PlaneEtaBins: c.PlaneEtaBins,

		AcceptanceTol: c.AcceptanceTol,
	}
}

// Wedge returns the wedge size byte, 'L' unless the configuration says 'S'.
func (c Configuration) Wedge() byte {
	if c.WedgeSize == "S" || c.WedgeSize == "s" {
		return 'S'
	}
	return 'L'
}

var configuration Configuration

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
