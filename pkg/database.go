package mmt

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	"gonum.org/v1/gonum/spatial/r3"
	_ "modernc.org/sqlite"
)

// ConnectToDatabase opens the conditions database. driver is "mysql" or
// "sqlite"; for sqlite dbname is the database file.
func ConnectToDatabase(driver, user, pass, host, dbname string) (*sqlx.DB, error) {
	switch driver {
	case "", "mysql":
		port := "3306"
		dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
		return sqlx.Connect("mysql", dbURI)
	case "sqlite":
		return sqlx.Connect("sqlite", dbname)
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

type stripPositionEntry struct {
	Wedge     string  `db:"Wedge"`
	Eta       int     `db:"Eta"`
	Multiplet int     `db:"Multiplet"`
	Layer     int     `db:"Layer"`
	X         float64 `db:"X"`
	Y         float64 `db:"Y"`
	Z         float64 `db:"Z"`
}

type readoutEntry struct {
	Wedge string `db:"Wedge"`
	Eta   int    `db:"Eta"`
	ReadoutParameters
}

type stereoAngleEntry struct {
	Wedge string  `db:"Wedge"`
	Eta   int     `db:"Eta"`
	Layer int     `db:"Layer"`
	Angle float64 `db:"Angle"`
}

type stationKey struct {
	Wedge string
	Eta   int
}

// LoadGeometry reads the first strip positions and readout parameters valid
// for runNumber.
func LoadGeometry(db *sqlx.DB, runNumber int) (*StaticGeometry, error) {
	readout, err := getReadoutFromDB(db, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting readout parameters from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}
	angles, err := getStereoAnglesFromDB(db, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting stereo angles from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}
	positions, err := getStripPositionsFromDB(db, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting strip positions from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}

	geo := &StaticGeometry{}
	for _, entry := range readout {
		key := stationKey{Wedge: entry.Wedge, Eta: entry.Eta}
		ro := entry.ReadoutParameters
		ro.StereoAngle = angles[key]
		geo.SetStation(StationGeometry{
			Wedge:     entry.Wedge,
			Eta:       entry.Eta,
			Positions: positions[key],
			Readout:   ro,
		})
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Geometry for run %d: %d stations", runNumber, len(geo.Stations))
		logger.Info(message, "database")
	}
	return geo, nil
}

func getReadoutFromDB(db *sqlx.DB, runNumber int) ([]readoutEntry, error) {
	query := "SELECT Wedge, Eta, StripPitch, DistanceFromZAxis, RoLength, LWidth, SWidth, NMissedBottomEta, NMissedBottomStereo " +
		"FROM ReadoutParameters WHERE MinRun <= ? and MaxRun >= ? ORDER BY Wedge, Eta"
	if configuration.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}
	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var entries []readoutEntry
	for rows.Next() {
		result := readoutEntry{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		entries = append(entries, result)
	}
	return entries, rows.Err()
}

func getStereoAnglesFromDB(db *sqlx.DB, runNumber int) (map[stationKey][]float64, error) {
	query := "SELECT Wedge, Eta, Layer, Angle FROM StereoAngles WHERE MinRun <= ? and MaxRun >= ? ORDER BY Wedge, Eta, Layer"
	if configuration.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}
	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	angles := make(map[stationKey][]float64)
	for rows.Next() {
		result := stereoAngleEntry{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		key := stationKey{Wedge: result.Wedge, Eta: result.Eta}
		angles[key] = append(angles[key], result.Angle)
	}
	return angles, rows.Err()
}

func getStripPositionsFromDB(db *sqlx.DB, runNumber int) (map[stationKey][]r3.Vec, error) {
	query := "SELECT Wedge, Eta, Multiplet, Layer, X, Y, Z FROM StripPositions " +
		"WHERE MinRun <= ? and MaxRun >= ? ORDER BY Wedge, Eta, Multiplet, Layer"
	if configuration.Verbosity > 2 {
		logger.Info(fmt.Sprintf("Query: %s", query), "database")
	}
	rows, err := db.Queryx(query, runNumber, runNumber)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	positions := make(map[stationKey][]r3.Vec)
	for rows.Next() {
		result := stripPositionEntry{}
		if err := rows.StructScan(&result); err != nil {
			return nil, fmt.Errorf("error scanning DB row: %w", err)
		}
		key := stationKey{Wedge: result.Wedge, Eta: result.Eta}
		positions[key] = append(positions[key], r3.Vec{X: result.X, Y: result.Y, Z: result.Z})
	}
	return positions, rows.Err()
}
