////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package backend opens the document database the client stores all hosted
// collections in. Every collection package (dm/storage, feed/storage,
// notifications, auth) hangs its tables off the handle opened here.
package backend

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	// Can be provided to SQLite to create a temporary, in-memory DB.
	temporaryDbPath = "file:%s?mode=memory&cache=shared"

	// Determines maximum runtime of DB queries.
	dbTimeout = 3 * time.Second
)

// Open creates the database connection and applies the connection pragmas.
// An empty dbFilePath opens a uniquely named in-memory database, used by
// tests and throwaway sessions.
func Open(dbFilePath string) (*gorm.DB, error) {
	if dbFilePath == "" {
		dbFilePath = fmt.Sprintf(temporaryDbPath, uuid.NewString())
		jww.WARN.Printf("[BACKEND] No database file path specified! " +
			"Using temporary in-memory database")
	}

	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.New(jww.TRACE, logger.Config{LogLevel: logger.Info}),
	})
	if err != nil {
		return nil, errors.Errorf(
			"unable to initialize database backend: %+v", err)
	}

	// Enable foreign keys because they are disabled in SQLite by default
	if err = db.Exec("PRAGMA foreign_keys = ON", nil).Error; err != nil {
		return nil, err
	}

	// Enable Write Ahead Logging to enable multiple DB connections
	if err = db.Exec("PRAGMA journal_mode = WAL;", nil).Error; err != nil {
		return nil, err
	}

	sqlDb, err := db.DB()
	if err != nil {
		return nil, errors.Errorf(
			"unable to configure database connection pool: %+v", err)
	}
	sqlDb.SetConnMaxLifetime(dbTimeout)
	sqlDb.SetMaxOpenConns(1)

	return db, nil
}
