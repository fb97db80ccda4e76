// Package worker parses many formulas in parallel.
//
// Batch handles a known slice of formulas and returns results in input
// order:
//
//	br := worker.NewBatch(p.Parse, 8).Run(ctx, formulas)
//	for _, r := range br.Results {
//	    if r.Error != nil {
//	        // handle error
//	    }
//	}
//
// Pool handles a stream, such as lines read from stdin:
//
//	pool := worker.NewPool(ctx, p.Parse, 4)
//	go func() {
//	    for scanner.Scan() {
//	        pool.Submit(worker.Job{Formula: scanner.Text()})
//	    }
//	    pool.Close()
//	}()
//	for r := range pool.Results() {
//	    // results arrive in completion order; r.Index is the input order
//	}
package worker
