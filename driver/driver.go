// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

/*
Package driver is a native client for the HelixDB relational database.

The driver speaks the hx wire protocol: a session is opened on a tcp (or
tls) connection, statements are executed directly or prepared and executed
with parameters, query results and large objects are streamed on demand.
*/
package driver

// DriverVersion is the version number of the helix driver.
const DriverVersion = "1.0.5"

// DriverName is the driver name.
const DriverName = "helix"

// default client application name.
const defaultApplicationName = DriverName

// default fetch size for queries.
const defaultFetchSize = 128
