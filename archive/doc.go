// Package archive parses PostgreSQL dumps in custom format, as produced by
// pg_dump -Fc or pg_dump --format=custom.
//
// It gives direct access to the archive header, the table of contents, and the
// raw data streams for individual tables. This is useful when you do not trust
// the SQL statements embedded in a dump, or when you want to process table data
// without loading it into a database first.
//
// Basic usage:
//
//	f, err := os.Open("backup.pgdump")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	a, err := archive.Parse(f)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("backup of %s\n", a.DatabaseName)
//
// Table data is read through the same file handle via OpenData, which returns a
// reader over the decompressed data stream of a table of contents entry.
package archive
