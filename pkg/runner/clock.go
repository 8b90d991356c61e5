package runner

import "time"

// nowUTC is swappable in tests to make checkpoint timestamps deterministic.
var nowUTC = func() time.Time {
	return time.Now().UTC()
}
