package mmt

import "fmt"

// ErrPlaneCount is returned when the geometry supplies a different number of
// planes than the configured plane-type string describes.
type ErrPlaneCount struct {
	Setup  string
	Planes int
}

func (e *ErrPlaneCount) Error() string {
	return fmt.Sprintf("invalid number of planes: setup %q has %d, geometry has %d", e.Setup, len(e.Setup), e.Planes)
}

// ErrPlaneType is returned for a plane-type character outside {x,u,v}.
type ErrPlaneType struct {
	Type string
}

func (e *ErrPlaneType) Error() string {
	return fmt.Sprintf("unsupported plane type %q", e.Type)
}

// ErrParameterIndex is returned for an alignment parameter index outside [0,6).
type ErrParameterIndex struct {
	Index int
}

func (e *ErrParameterIndex) Error() string {
	return fmt.Sprintf("invalid alignment parameter index %d", e.Index)
}

// ErrLocalIndex is returned for a local-slope hit pattern index outside [0,10].
type ErrLocalIndex struct {
	Index int
}

func (e *ErrLocalIndex) Error() string {
	return fmt.Sprintf("invalid local slope pattern %d, not in [0,10]", e.Index)
}

// ErrXPlaneCount is returned when a hit vector does not have one entry per X plane.
type ErrXPlaneCount struct {
	Want int
	Got  int
}

func (e *ErrXPlaneCount) Error() string {
	return fmt.Sprintf("expected %d x planes, got %d", e.Want, e.Got)
}

// ErrReadoutParameters is returned when the geometry provider hands back
// readout parameters that cannot describe a wedge.
type ErrReadoutParameters struct {
	Wedge  string
	Eta    int
	Reason string
}

func (e *ErrReadoutParameters) Error() string {
	return fmt.Sprintf("invalid readout parameters for %s eta %d: %s", e.Wedge, e.Eta, e.Reason)
}

// ErrGeometry wraps a failure of the geometry provider.
type ErrGeometry struct {
	Wedge string
	Eta   int
	Err   error
}

func (e *ErrGeometry) Error() string {
	return fmt.Sprintf("error reading geometry for %s eta %d: %v", e.Wedge, e.Eta, e.Err)
}

func (e *ErrGeometry) Unwrap() error {
	return e.Err
}

// ErrOpenFile represents an error when opening a file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrCreateGroup represents an error when creating a group.
type ErrCreateGroup struct {
	GroupName string
	Err       error
}

func (e *ErrCreateGroup) Error() string {
	return fmt.Sprintf("error creating group %q: %v", e.GroupName, e.Err)
}

func (e *ErrCreateGroup) Unwrap() error {
	return e.Err
}

// ErrCreateTable represents an error when creating a table.
type ErrCreateTable struct {
	TableName string
	Err       error
}

func (e *ErrCreateTable) Error() string {
	return fmt.Sprintf("error creating table %q: %v", e.TableName, e.Err)
}

func (e *ErrCreateTable) Unwrap() error {
	return e.Err
}
