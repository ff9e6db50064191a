package repositories

const accountColumns = `email, password_hash, registered_by, self_destruct, utm_link, device_id, device_name, total_devices`

// accountQueries holds the statements of one SQL dialect.
type accountQueries struct {
	insert              string
	getByEmail          string
	getByEmailAndDevice string
	listByRegistrant    string
	setSelfDestruct     string
	setDeviceSelfDest   string
	setUTMLink          string
	registerDevice      string
}

var sqliteQueries = accountQueries{
	insert: `
		INSERT INTO users (email, password_hash, registered_by, self_destruct, utm_link, total_devices)
		VALUES (?, ?, ?, ?, ?, 0)
	`,
	getByEmail:          `SELECT ` + accountColumns + ` FROM users WHERE email = ?`,
	getByEmailAndDevice: `SELECT ` + accountColumns + ` FROM users WHERE email = ? AND device_id = ?`,
	listByRegistrant:    `SELECT ` + accountColumns + ` FROM users WHERE registered_by = ? ORDER BY email`,
	setSelfDestruct:     `UPDATE users SET self_destruct = ? WHERE email = ?`,
	setDeviceSelfDest:   `UPDATE users SET self_destruct = ? WHERE email = ? AND device_id = ?`,
	setUTMLink:          `UPDATE users SET utm_link = ? WHERE email = ?`,
	registerDevice: `
		UPDATE users
		SET device_id = ?, device_name = ?, total_devices = total_devices + 1
		WHERE email = ?
	`,
}

var postgresQueries = accountQueries{
	insert: `
		INSERT INTO users (email, password_hash, registered_by, self_destruct, utm_link, total_devices)
		VALUES ($1, $2, $3, $4, $5, 0)
	`,
	getByEmail:          `SELECT ` + accountColumns + ` FROM users WHERE email = $1`,
	getByEmailAndDevice: `SELECT ` + accountColumns + ` FROM users WHERE email = $1 AND device_id = $2`,
	listByRegistrant:    `SELECT ` + accountColumns + ` FROM users WHERE registered_by = $1 ORDER BY email`,
	setSelfDestruct:     `UPDATE users SET self_destruct = $1 WHERE email = $2`,
	setDeviceSelfDest:   `UPDATE users SET self_destruct = $1 WHERE email = $2 AND device_id = $3`,
	setUTMLink:          `UPDATE users SET utm_link = $1 WHERE email = $2`,
	registerDevice: `
		UPDATE users
		SET device_id = $1, device_name = $2, total_devices = total_devices + 1
		WHERE email = $3
	`,
}

func queriesFor(driver string) *accountQueries {
	if driver == DriverPostgres {
		return &postgresQueries
	}
	return &sqliteQueries
}
