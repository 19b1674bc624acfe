// Package storage writes run artifacts to disk.
//
// Every file is written through WriteAtomic: data goes to a temporary file in
// the destination directory, is synced, and is then renamed over the target.
// Readers never observe a half-written report or checkpoint.
//
//	store, err := storage.ForFile(cfg.Output.ReportPath)
//	if err != nil {
//	    return err
//	}
//	path, err := store.WriteFile(filepath.Base(cfg.Output.ReportPath), func(w io.Writer) error {
//	    return report.WriteCSV(w, rows, report.CSVOptions{BOM: true})
//	})
package storage
