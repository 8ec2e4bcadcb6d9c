package mmt

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	hdf5 "github.com/jmbenlloch/go-hdf5"
	"golang.org/x/exp/maps"
)

// Writer stores the lookup tables of one wedge and the converted hits of a
// run in an HDF5 file.
type Writer struct {
	File             *hdf5.File
	Filename         string
	RunTag           string
	RunGroup         *hdf5.Group
	TablesGroup      *hdf5.Group
	HitsGroup        *hdf5.Group
	RunInfoTable     *hdf5.Dataset
	ParametersTable  *hdf5.Dataset
	EventTable       *hdf5.Dataset
	HitsTable        *hdf5.Dataset
	CompressionLevel int
	EvtCounter       int
	HitCounter       int
	tablesWritten    bool
}

func NewWriter(filename string, compressionLevel int) (*Writer, error) {
	hdf5.SetStringLength(STRLEN)

	writer := &Writer{
		Filename:         filename,
		RunTag:           uuid.NewString(),
		CompressionLevel: compressionLevel,
	}
	if configuration.Verbosity > 0 {
		logger.Info(fmt.Sprintf("creating file %s, run tag %s", filename, writer.RunTag), "writer")
	}

	var err error
	if writer.File, err = openFile(filename); err != nil {
		return nil, err
	}
	if writer.RunGroup, err = createGroup(writer.File, "Run"); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	if writer.TablesGroup, err = createGroup(writer.File, "Tables"); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	if writer.HitsGroup, err = createGroup(writer.File, "Hits"); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	if writer.RunInfoTable, err = createTable(writer.RunGroup, "runInfo", RunInfoHDF5{}, compressionLevel); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	if writer.ParametersTable, err = createTable(writer.RunGroup, "parameters", ParameterHDF5{}, compressionLevel); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	if writer.EventTable, err = createTable(writer.HitsGroup, "events", EventDataHDF5{}, compressionLevel); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	if writer.HitsTable, err = createTable(writer.HitsGroup, "hits", HitHDF5{}, compressionLevel); err != nil {
		return nil, errors.Join(err, writer.Close())
	}
	return writer, nil
}

// scalarParameters lists the derived constants written next to the tables.
func scalarParameters(par *Parameters) map[string]float64 {
	return map[string]float64{
		"h":                    par.H,
		"ctx":                  float64(par.CTX),
		"ctuv":                 float64(par.CTUV),
		"uv_error":             par.UVError,
		"charge_threshold":     par.ChargeThreshold,
		"w1":                   par.W1,
		"w2":                   par.W2,
		"w3":                   par.W3,
		"h1":                   par.H1,
		"wedge_opening_angle":  par.WedgeOpeningAngle,
		"inner_radius":         par.InnerRadius,
		"strip_width":          par.StripWidth,
		"stereo_degree":        par.StereoDegree,
		"mid_plane_large":      par.MidPlaneLarge,
		"mid_plane_large_X":    par.MidPlaneLargeX,
		"mid_plane_large_UV":   par.MidPlaneLargeUV,
		"minimum_large_theta":  par.MinimumLargeTheta,
		"maximum_large_theta":  par.MaximumLargeTheta,
		"minimum_large_phi":    par.MinimumLargePhi,
		"maximum_large_phi":    par.MaximumLargePhi,
		"slope_min":            par.SlopeMin,
		"slope_max":            par.SlopeMax,
		"h_mx":                 par.HMx,
		"h_my":                 par.HMy,
		"m_x_min":              par.MXMin,
		"m_x_max":              par.MXMax,
		"m_y_min":              par.MYMin,
		"m_y_max":              par.MYMax,
		"n_x":                  float64(par.NX),
		"n_y":                  float64(par.NY),
		"n_etabins":            float64(par.NEtaBins),
		"n_phibins":            float64(par.NPhiBins),
		"n_theta_rois":         float64(par.NThetaROIs),
		"n_phi_rois":           float64(par.NPhiROIs),
		"dtheta_cut":           par.DThetaCut,
		"x_error":              par.XError,
		"BC_window":            float64(par.BCWindow),
		"misalignment_type":    float64(par.Misal.Type),
		"correction_type":      float64(par.Correct.Type),
		"denominator_clamps":   float64(par.Diag.DenominatorClamps.Load()),
		"sum_x_clamps":         float64(par.Diag.NumeratorClamps.Load()),
		"vertical_strip_width": par.VerticalStripWidthUV,
	}
}

// WriteTables writes the run info, scalar constants and every filled table
// of par. It can be called once per file.
func (w *Writer) WriteTables(par *Parameters) error {
	if w.tablesWritten {
		return fmt.Errorf("tables already written to %s", w.Filename)
	}
	w.tablesWritten = true

	runInfo := RunInfoHDF5{
		runTag:  convertToHdf5String(w.RunTag),
		sector:  convertToHdf5String(string(par.Sector)),
		setup:   convertToHdf5String(par.Setup),
		nplanes: int32(par.NPlanes()),
		ybins:   int32(par.YBins),
	}
	if err := writeEntryToTable(w.RunInfoTable, runInfo, 0); err != nil {
		return fmt.Errorf("error writing run info: %w", err)
	}

	scalars := scalarParameters(par)
	names := maps.Keys(scalars)
	sort.Strings(names)
	params := make([]ParameterHDF5, len(names))
	for i, name := range names {
		params[i] = ParameterHDF5{param: convertToHdf5String(name), value: scalars[name]}
	}
	if err := writeArrayToTable(w.ParametersTable, &params, 0); err != nil {
		return fmt.Errorf("error writing parameters: %w", err)
	}

	nplanes := uint(par.NPlanes())
	ybins := uint(par.YBins)
	if err := writeFixedArray(w.TablesGroup, "z_nominal", []uint{nplanes}, par.ZNominal, w.CompressionLevel); err != nil {
		return err
	}
	if err := writeFixedArray(w.TablesGroup, "z_large", []uint{ybins, nplanes}, par.zLarge, w.CompressionLevel); err != nil {
		return err
	}
	ybases := make([]float64, 0, len(par.ybases)*nEtaStations)
	for _, b := range par.ybases {
		ybases = append(ybases, b[:]...)
	}
	if err := writeFixedArray(w.TablesGroup, "ybases", []uint{nplanes, nEtaStations}, ybases, w.CompressionLevel); err != nil {
		return err
	}
	if err := writeFixedArray(w.TablesGroup, "eta_bins", []uint{uint(len(par.etaBins))}, par.etaBins, w.CompressionLevel); err != nil {
		return err
	}
	if err := writeFixedArray(w.TablesGroup, "phi_bins", []uint{uint(len(par.phiBins))}, par.phiBins, w.CompressionLevel); err != nil {
		return err
	}

	if !par.TablesBuilt() {
		if configuration.Verbosity > 0 {
			logger.Info("lookup tables not filled, writing geometry only", "writer")
		}
		return nil
	}

	slimDims := []uint{nLocalPatterns, ybins, maxWhich}
	if err := writeFixedArray(w.TablesGroup, "ak_local_slim", slimDims, par.akSlim, w.CompressionLevel); err != nil {
		return err
	}
	if err := writeFixedArray(w.TablesGroup, "bk_local_slim", slimDims, par.bkSlim, w.CompressionLevel); err != nil {
		return err
	}

	theta := make([]float64, len(par.roi))
	phi := make([]float64, len(par.roi))
	for i, cell := range par.roi {
		theta[i] = cell.Theta
		phi[i] = cell.Phi
	}
	roiDims := []uint{uint(par.NY), uint(par.NX)}
	if err := writeFixedArray(w.TablesGroup, "roi_theta", roiDims, theta, w.CompressionLevel); err != nil {
		return err
	}
	if err := writeFixedArray(w.TablesGroup, "roi_phi", roiDims, phi, w.CompressionLevel); err != nil {
		return err
	}

	dtTable, err := createTable(w.TablesGroup, "dt_factors", DTFactorHDF5{}, w.CompressionLevel)
	if err != nil {
		return err
	}
	factors := make([]DTFactorHDF5, len(par.dtFactors))
	for i, f := range par.dtFactors {
		factors[i] = DTFactorHDF5{lg: f.LG, mult: f.Mult}
	}
	if err := writeArrayToTable(dtTable, &factors, 0); err != nil {
		return errors.Join(fmt.Errorf("error writing dt factors: %w", err), dtTable.Close())
	}
	if err := dtTable.Close(); err != nil {
		return err
	}

	yzDims := []uint{uint(par.NEtaBins), uint(par.NPhiBins), uint(len(par.planesX))}
	if err := writeFixedArray(w.TablesGroup, "ymod", yzDims, par.ymod, w.CompressionLevel); err != nil {
		return err
	}
	if err := writeFixedArray(w.TablesGroup, "zmod", yzDims, par.zmod, w.CompressionLevel); err != nil {
		return err
	}
	return nil
}

func (w *Writer) WriteEvent(event *HitEvent) error {
	errFlag := int32(0)
	if event.Error {
		errFlag = 1
	}
	evtData := EventDataHDF5{
		evtNumber: int32(event.EventID),
		nhits:     int32(len(event.MMTHits)),
		dropped:   int32(event.Dropped),
		err:       errFlag,
	}
	if err := writeEntryToTable(w.EventTable, evtData, w.EvtCounter); err != nil {
		return fmt.Errorf("error writing event %d: %w", event.EventID, err)
	}
	w.EvtCounter++

	// The array MUST be allocated at creation, appends to a nil slice
	// are not seen by HDF5
	hits := make([]HitHDF5, len(event.MMTHits))
	for i, h := range event.MMTHits {
		hits[i] = HitHDF5{
			evtNumber:  int32(event.EventID),
			plane:      int32(h.Plane),
			strip:      int32(h.Strip),
			stationEta: int32(h.StationEta),
			bcTime:     int32(h.BCTime),
			time:       h.Time,
			charge:     h.Charge,
			vmm:        int32(h.VMMChip),
			mmfe:       int32(h.MMFEVMM),
			art:        int32(h.ARTASIC),
			y:          h.Y,
			z:          h.Z,
			slope:      h.Slope,
			rprime:     h.RPrime,
			shift:      h.Shift,
		}
	}
	if err := writeArrayToTable(w.HitsTable, &hits, w.HitCounter); err != nil {
		return fmt.Errorf("error writing hits of event %d: %w", event.EventID, err)
	}
	w.HitCounter += len(hits)
	return nil
}

func (w *Writer) Close() error {
	var errs []error
	datasets := []*hdf5.Dataset{w.RunInfoTable, w.ParametersTable, w.EventTable, w.HitsTable}
	for _, d := range datasets {
		if d == nil {
			continue
		}
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	groups := []*hdf5.Group{w.RunGroup, w.TablesGroup, w.HitsGroup}
	for _, g := range groups {
		if g == nil {
			continue
		}
		if err := g.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if w.File != nil {
		if err := w.File.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
