// Package retention provides retention policy enforcement for audit records.
//
// # Retention Policy
//
// The retention package automatically prunes old audit records based on age:
//
//   - Configurable retention period (days)
//   - Scheduled pruning (cron expression)
//   - Optional archiving before deletion
//   - Configurable max record count
//
// # Basic Usage
//
//	// Create retention pruner
//	pruner := retention.NewPruner(storage, &retention.Config{
//	    RetentionDays: 90,
//	    PruneSchedule: "0 3 * * *", // Daily at 3 AM
//	    ArchiveBeforeDelete: true,
//	    ArchivePath: "data/archives/",
//	})
//
//	// Start background pruning
//	if err := pruner.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pruner.Stop()
//
//	// Check next scheduled pruning time
//	if next := pruner.NextPruning(); next != nil {
//	    log.Printf("Next pruning scheduled for: %s", next)
//	}
//
// # Manual Pruning
//
// You can also trigger pruning manually:
//
//	// Prune records older than retention period
//	deleted, err := pruner.Prune(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Printf("Deleted %d old audit records", deleted)
//
// # Archiving
//
// If archiving is enabled, audit records are exported to JSON before deletion:
//
//   - Archives are stored in the configured archive path
//   - Archive files are named by timestamp: audit-2025-01-15-030000.json
//   - Archives contain all deleted records in JSON format
//
// # Scheduling
//
// The pruner runs on a cron schedule:
//
//   - "0 3 * * *": Daily at 3 AM (default)
//   - "0 0 * * 0": Weekly on Sunday at midnight
//   - "0 */6 * * *": Every 6 hours
//
// If no schedule is configured (empty PruneSchedule), the scheduler
// does nothing and Start() returns immediately without error.
package retention
