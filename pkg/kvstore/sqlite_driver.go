package kvstore

import _ "modernc.org/sqlite"

const driverName = "sqlite"
