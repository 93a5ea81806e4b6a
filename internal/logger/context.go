package logger

// Component-specific logger functions

// DB returns a logger for database operations
func DB() Logger {
	return WithField("component", "db")
}

// Migration returns a logger for schema migration operations
func Migration() Logger {
	return WithField("component", "migration")
}

// HTTP returns a logger for request handling
func HTTP() Logger {
	return WithField("component", "http")
}

// Service returns a logger for domain operations
func Service() Logger {
	return WithField("component", "service")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}
