// Package fitty manages fit entries for batches of histograms.
//
// A FitEntry describes how one data series is fitted: one or more formulas
// summed into a composed function, the fit range, a rebin factor and the
// initial value, limits and mode of each parameter. Entries are stored one
// per line in a text file (see ParseLineEntry for the two grammars) and
// matched to data by name through a decorator pattern.
//
// A Fitter loads entries from a reference or an auxiliary file according
// to a PriorityMode, runs fit attempts through an external Minimizer and
// writes the results back:
//
//	f, err := fitty.New(fitty.WithMinimizer(minimize.NewSimplex()))
//	if err != nil {
//		return err
//	}
//	if err := f.InitFromFile("params.txt", "params.txt.out"); err != nil {
//		return err
//	}
//	for _, h := range histograms {
//		result := f.Fit(ctx, h, "Q")
//		if !result.OK() {
//			log.Printf("%s: %v", result.Name, result.Err)
//		}
//	}
//	f.ExportToFile(false)
//
// An attempt keeps the new parameters only when the chi-square did not get
// worse; otherwise the entry is rolled back to the values it had before.
package fitty
