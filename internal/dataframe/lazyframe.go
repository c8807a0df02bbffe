package dataframe

// LazyFrame is a deferred query plan over a DataFrame: each stage is queued
// instead of applied immediately, and the whole plan runs only when
// Collect is called. This mirrors spec §3.1's LazyFrame variant and lets
// lazy-capable formats (csv, adt, parquet, json-lines per spec §6.2) defer
// materialization until an operation actually needs rows.
type LazyFrame struct {
	source *DataFrame
	stages []func(*DataFrame) *DataFrame
}

// NewLazyFrame wraps a DataFrame as the starting point of a lazy plan.
func NewLazyFrame(df *DataFrame) *LazyFrame {
	return &LazyFrame{source: df}
}

// Select queues a column projection.
func (lf *LazyFrame) Select(columns []string) *LazyFrame {
	return lf.then(func(df *DataFrame) *DataFrame { return df.Select(columns) })
}

// Filter queues a row predicate.
func (lf *LazyFrame) Filter(pred func(map[string]interface{}) bool) *LazyFrame {
	return lf.then(func(df *DataFrame) *DataFrame { return df.Filter(pred) })
}

// Sort queues a column sort.
func (lf *LazyFrame) Sort(column string, ascending bool) *LazyFrame {
	return lf.then(func(df *DataFrame) *DataFrame { return df.Sort(column, ascending) })
}

// Head queues a row limit.
func (lf *LazyFrame) Head(n int) *LazyFrame {
	return lf.then(func(df *DataFrame) *DataFrame { return df.Head(n) })
}

func (lf *LazyFrame) then(stage func(*DataFrame) *DataFrame) *LazyFrame {
	stages := make([]func(*DataFrame) *DataFrame, len(lf.stages)+1)
	copy(stages, lf.stages)
	stages[len(lf.stages)] = stage
	return &LazyFrame{source: lf.source, stages: stages}
}

// Collect runs every queued stage in order and materializes a DataFrame.
// Per spec §5, collection happens synchronously; it is the only place a
// LazyFrame touches the source DataFrame.
func (lf *LazyFrame) Collect() *DataFrame {
	df := lf.source
	for _, stage := range lf.stages {
		df = stage(df)
	}
	return df
}
