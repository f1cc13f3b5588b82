////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package cmd

// This is a comprehensive list of CLI flag name constants. Organized by
// subcommand, with root level CLI flags at the top of the list. Pulling flags
// through Viper should use the constants defined here.
const (
	//////////////// Root flags ///////////////////////////////////////////////

	// Log flags
	logLevelFlag = "logLevel"
	logFlag      = "log"

	// Storage flags
	dbFlag          = "db"
	storageDirFlag  = "storageDir"
	storagePassFlag = "password"

	// Misc
	profileCpuFlag = "profile-cpu"
	envFileFlag    = "env"

	///////////////// Account subcommand flags ////////////////////////////////
	emailFlag     = "email"
	passwordFlag  = "accountPassword"
	firstNameFlag = "firstName"
	lastNameFlag  = "lastName"
	usernameFlag  = "username"
	roleFlag      = "role"
	avatarFlag    = "avatar"
	bioFlag       = "bio"

	///////////////// Chat subcommand flags ///////////////////////////////////
	peerFlag    = "peer"
	messageFlag = "message"

	///////////////// Board subcommand flags //////////////////////////////////
	bodyFlag   = "body"
	labelsFlag = "labels"
	postFlag   = "post"
	queryFlag  = "query"

	///////////////// Feedback subcommand flags ///////////////////////////////
	bugFlag = "bug"
)
