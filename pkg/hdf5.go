package mmt

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

type RunInfoHDF5 struct {
	runTag  [STRLEN]byte
	sector  [STRLEN]byte
	setup   [STRLEN]byte
	nplanes int32
	ybins   int32
}

type ParameterHDF5 struct {
	param [STRLEN]byte
	value float64
}

type EventDataHDF5 struct {
	evtNumber int32
	nhits     int32
	dropped   int32
	err       int32
}

type DTFactorHDF5 struct {
	lg   float64
	mult float64
}

type HitHDF5 struct {
	evtNumber  int32
	plane      int32
	strip      int32
	stationEta int32
	bcTime     int32
	time       float64
	charge     float64
	vmm        int32
	mmfe       int32
	art        int32
	y          float64
	z          float64
	slope      float64
	rprime     float64
	shift      float64
}

const STRLEN = 40

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func openFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, &ErrOpenFile{Filename: fname, Err: err}
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, &ErrCreateGroup{GroupName: groupName, Err: err}
	}
	return g, nil
}

// createFixedArray makes a chunked, deflated float64 dataset of fixed shape.
func createFixedArray(group *hdf5.Group, name string, dims []uint, compressionLevel int) (*hdf5.Dataset, error) {
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()
	if err := plist.SetChunk(dims); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if err := plist.SetDeflate(compressionLevel); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, hdf5.T_NATIVE_DOUBLE, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeFixedArray(group *hdf5.Group, name string, dims []uint, data []float64, compressionLevel int) error {
	size := uint(1)
	for _, d := range dims {
		size *= d
	}
	if size == 0 || uint(len(data)) != size {
		return &ErrCreateTable{TableName: name, Err: fmt.Errorf("%d values for shape %v", len(data), dims)}
	}
	dset, err := createFixedArray(group, name, dims, compressionLevel)
	if err != nil {
		return err
	}
	if err := dset.Write(&data); err != nil {
		dset.Close()
		return fmt.Errorf("error writing %s: %w", name, err)
	}
	return dset.Close()
}

// createTable makes an extendable one dimensional table of datatype records.
func createTable(group *hdf5.Group, name string, datatype interface{}, compressionLevel int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer fileSpace.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	defer plist.Close()

	chunks := []uint{32768}
	if err := plist.SetChunk(chunks); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	if err := plist.SetDeflate(compressionLevel); err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, &ErrCreateTable{TableName: name, Err: err}
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, counter int) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array, counter)
}

// writeArrayToTable appends data after the first counter rows.
func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, counter int) error {
	length := uint(len(*data))
	if length == 0 {
		return nil
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer dataspace.Close()

	// extend
	rowsInFile := uint(counter)
	newsize := []uint{rowsInFile + length}
	if err := dataset.Resize(newsize); err != nil {
		return err
	}
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{rowsInFile}
	count := []uint{length}
	if err := filespace.SelectHyperslab(start, nil, count, nil); err != nil {
		return err
	}
	return dataset.WriteSubset(data, dataspace, filespace)
}
