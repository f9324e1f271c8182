// Package releasedate parses the free-form release and air dates returned by
// metadata providers into calendar dates.
//
// Two grammars exist. The strict grammar (day, full month name, year) is used
// for theatrical release dates. The loose grammar also accepts month
// abbreviations with trailing punctuation and is used for episode air dates.
// Both accept ISO 8601 dates as provider-native input. Parsed values are
// midnight in the caller's location so that day comparisons are exact.
package releasedate
