// Package domain models Great Lakes - St. Lawrence River water-level series
// and the cleaning and resampling rules applied to them before storage.
//
// # Data Sources
//
// Water levels come from two hydrographic web services:
//
//   - CHS (Canadian Hydrographic Service): 3-minute observations, station IDs
//     are 5-digit strings (e.g. "15930" for Sorel). Levels are reported
//     against local chart datum; stations carry an additive correction ("cd")
//     that converts chart datum to IGLD, the common geodetic reference for
//     the basin.
//   - NOAA CO-OPS: 6-minute observations, station IDs are 7-digit strings
//     (e.g. "9052030" for Oswego). Levels are requested directly in IGLD
//     metres, so no datum correction applies.
//
// # Time Bases
//
// CHS returns timestamps in UTC; they are shifted to a fixed Eastern Standard
// offset (UTC-5, no DST) before storage, matching long-standing basin
// reporting practice. NOAA returns local standard time and is stored as-is.
// Naive request times are shifted to UTC using an offset captured once at
// process start; see [Normalizer] for the caveats.
//
// # Cleaning
//
// Only the CHS path is quality-filtered. Three masking passes run in order
// and a later pass never restores a value nulled by an earlier one:
//
//  1. sensor-stall suppression: a value equal to both its 1-step and 2-step
//     predecessors is rejected (runs of three or more identical readings)
//  2. jump guard: a step of more than 2.5 m from the previous retained value
//     is rejected
//  3. outlier bound: values outside mean +/- 4 stdev are rejected, where mean
//     and stdev are computed over the series before any filtering
//
// Rejected values stay in the series as NaN so that a filtered observation
// remains distinguishable from a timestamp that was never observed.
//
// # Resampling
//
// Hourly output takes the first observation in each hour bucket. Daily output
// differs by provider: CHS requires at least 18 hourly values in a day and
// otherwise nulls the day; NOAA attributes the hour-24 reading back to the
// prior day (the NOAA daily-mean convention) and always drops the current,
// incomplete day. Daily means are rounded to 2 decimal places.
package domain
