// Package files resolves the configured source file entries to paths.
//
// An entry is either a file name, resolved against the data directory, or a
// glob pattern such as "Sales_*_2019.csv". Pattern matches are ordered by
// the calendar month named in the file, so a year of monthly extracts is
// concatenated January first:
//
//	d := files.NewDiscovery(paths.DataDir)
//	sources := d.ResolveSources([]string{"Sales_*_2019.csv"})
package files
