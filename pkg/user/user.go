package user

import (
	"time"

	log "github.com/sirupsen/logrus"
)

type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
	Email       string
	Settings    Settings
}

// Settings of the user. Calendar weeks always start on Monday, so only the timezone is
// configurable.
type Settings struct {
	Timezone string
}

// Location resolves the user's timezone. Unknown or empty zones fall back to UTC.
func (u User) Location() *time.Location {
	if u.Settings.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Settings.Timezone)
	if err != nil {
		log.Warnf("unknown timezone %q for user %s, using UTC", u.Settings.Timezone, u.Uid)
		return time.UTC
	}
	return loc
}
