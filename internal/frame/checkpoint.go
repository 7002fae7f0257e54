package frame

import "fmt"

// Checkpoint materializes the current lazy plan into a DuckDB temp table
// and returns a fresh Frame that scans that table lazily. This reset point
// must never be removed as an optimization: the query optimizer's plan
// grows super-linearly with each join, and a long, un-reset chain of joins
// either thrashes the planner or exhausts memory on a multi-GB card bulk.
// Materializing to a temp table also caps memory: only the checkpointed
// columns survive, not the whole upstream join history.
//
// The pipeline calls this exactly 4 times per set — after the per-face
// transforms, after the multi-row lookup joins, after UUID/struct
// assembly, and after the self-join relationship ops. Each call site
// names, in its own comment, which join group it is resetting after.
func (f *Frame) Checkpoint(name string) (*Frame, error) {
	tableName := f.conn.nextName("ckpt_" + name)
	createStmt := fmt.Sprintf("CREATE TEMP TABLE %s AS SELECT * FROM %s", tableName, f.plan)
	if _, err := f.conn.db.Exec(createStmt); err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", name, err)
	}
	return &Frame{conn: f.conn, plan: tableName}, nil
}

// Drop removes a checkpoint's backing temp table. Called once the pipeline
// has moved past the stage that depended on it, to bound the DuckDB
// session's resident temp-table count across a multi-set build.
func (f *Frame) Drop() error {
	_, err := f.conn.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", f.plan))
	return err
}
