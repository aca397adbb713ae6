// Package errors provides coded, actionable errors for lessonvars.
//
// Every error the system can surface to an author has a stable code:
//
//   - E1xx registry: duplicate or empty names, invalid definitions,
//     unreadable declaration documents. Fatal at startup.
//   - E2xx runtime: notification storms and panicking subscribers.
//     Recovered and logged.
//   - E3xx binding: kind mismatches (write rejected) and constraint
//     violations (write accepted, dev warning).
//   - E4xx config and protocol.
//
// # Usage
//
//	err := errors.New("E101").
//	    WithVariable("sineAngle").
//	    WithLocation("variables.yaml", 12, 3)
//
//	errors.Fprint(os.Stderr, err)
//	// ERROR E101: Duplicate variable name
//	//
//	//   variables.yaml:12:3
//	//   variable: sineAngle
//	// ...
//
// Errors wrap their cause, so errors.Is and errors.As see through them.
package errors
