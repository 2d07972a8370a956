package standardizer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"golang-fact-standardizer/internal/models"
	"golang-fact-standardizer/internal/rules"
)

// shard is a contiguous range of table rows. Rows of one filing always land
// in the same shard, so the rule passes never look across shard boundaries.
type shard struct {
	table *models.Table
	log   *rules.AuditLog
}

// splitByFiling cuts the sorted table into at most n contiguous shards of
// roughly equal size without splitting a filing. Shards share rows with table.
func splitByFiling(table *models.Table, n int) []*shard {
	if n < 1 {
		n = 1
	}
	total := table.Len()
	if total == 0 || n == 1 {
		return []*shard{{table: table, log: rules.NewAuditLog(total)}}
	}

	target := (total + n - 1) / n
	var shards []*shard
	start := 0
	for start < total {
		end := start + target
		if end >= total {
			end = total
		} else {
			// Move the cut forward to the next filing boundary
			for end < total && table.Rows[end].Key.Filing() == table.Rows[end-1].Key.Filing() {
				end++
			}
		}
		part := table.Slice(start, end)
		shards = append(shards, &shard{table: part, log: rules.NewAuditLog(part.Len())})
		start = end
	}
	return shards
}

// runPass applies tree to every shard, concurrently when there is more than
// one. It returns once all shards finished or the first one failed.
func runPass(ctx context.Context, shards []*shard, tree rules.Entity, idPrefix string, workers int, done func()) error {
	if tree == nil {
		return nil
	}
	if len(shards) == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := rules.Process(shards[0].table, tree, shards[0].log, idPrefix); err != nil {
			return err
		}
		done()
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, s := range shards {
		s := s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := rules.Process(s.table, tree, s.log, idPrefix); err != nil {
				return err
			}
			done()
			return nil
		})
	}
	return g.Wait()
}

func auditLogs(shards []*shard) []*rules.AuditLog {
	logs := make([]*rules.AuditLog, len(shards))
	for i, s := range shards {
		logs[i] = s.log
	}
	return logs
}
