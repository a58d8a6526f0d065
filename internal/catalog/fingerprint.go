// Screenscout - AI-generated media catalogs for Stremio-compatible clients
// Copyright 2026 Screenscout Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import "time"

// Fingerprint builds the cache key for a request at a given time:
//
//	"catalog:" + configHash + ":" + variant + ":" + temporalBucket
//
// The format is a stable contract for debugging and interop. Two
// requests with the same config, variant, and temporal bucket always
// produce the same fingerprint; requests in different buckets never
// collide.
func Fingerprint(configHash, variant string, now time.Time) string {
	return "catalog:" + configHash + ":" + variant + ":" + temporalBucket(now)
}

func (r *Request) fingerprint(now time.Time) string {
	return Fingerprint(r.Config.Hash(), r.variant(), now)
}

// temporalBucket partitions time into coarse slices so catalogs
// refresh with the viewing context instead of on a fixed clock.
// Format: timeOfDay|dayType|season.
func temporalBucket(now time.Time) string {
	return timeOfDay(now) + "|" + dayType(now) + "|" + season(now)
}

func timeOfDay(now time.Time) string {
	switch h := now.Hour(); {
	case h >= 5 && h < 11:
		return "morning"
	case h >= 11 && h < 17:
		return "afternoon"
	case h >= 17 && h < 22:
		return "evening"
	default:
		return "night"
	}
}

func dayType(now time.Time) string {
	switch now.Weekday() {
	case time.Saturday, time.Sunday:
		return "weekend"
	default:
		return "weekday"
	}
}

func season(now time.Time) string {
	switch now.Month() {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "autumn"
	}
}
