package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/London")
	if err != nil {
		panic(err)
	}
}

// force the timezone to Belfast time because publication periods
// (months, quarters, revision years) are declared in UK local time and
// date arithmetic based on <time.Time>.Year()/Month()/Day() would drift
// on servers pinned to other regions.
func Now() time.Time {
	return time.Now().In(Location)
}
