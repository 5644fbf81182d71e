// Package domain models hourly weather forecasts and the daytime statistics
// derived from them.
//
// # Raw Forecast Documents
//
// A forecast source returns one JSON document per location:
//
//	{"forecasts": [{"date": "2022-05-26", "hours": [{"hour": "10", "temp": 22, "condition": "cloudy"}]}]}
//
// Days and hours keep the order the source emits them. The hour and temp
// fields are integers; some providers encode them as strings ("10"), which
// are accepted as long as they hold an integer. Every other shape mismatch
// is rejected with a [SchemaError] by [DecodeForecast].
//
// # Daytime Statistics
//
// Only samples inside the daytime window [9, 19) count. For each day the
// reduction produces:
//
//	mid_temp                      mean temperature of daytime samples, one decimal
//	hours_without_precipitation   daytime samples whose condition is dry
//
// Dry conditions are clear, partly-cloudy, cloudy and overcast. Anything else,
// including values this package has never seen, counts as precipitation.
//
// A day without daytime samples divides by one and reports mid_temp 0.0 with
// empty_window set, so consumers can tell it apart from a measured zero.
//
// Dates are keyed as "dd-mm". The year is dropped, so two days a year apart
// share a key; the later one wins and keeps the earlier position.
//
// # Ranking
//
// Each location is rated by the mean of its daily mid_temp and dry hours
// (one decimal each) and sorted descending by temperature, then dry hours.
// [SelectFavorites] walks that order and keeps every temperature tier leader
// plus any later entry with more dry hours than all leaders seen so far,
// stopping at the first entry that improves neither.
package domain
