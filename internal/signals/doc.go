// Package signals is the forum's publish/subscribe layer: named channels
// holding ordered listener lists.
//
// Bulk operations such as fixture loading silence database side effects by
// detaching every listener of DBChannels with DetachAll, doing their work,
// and putting the lists back with RestoreAll (or use Suppress). Restoring
// replaces the live lists, so restoring the same Snapshot twice is the same
// as restoring it once.
//
// All Registry methods are safe for concurrent use. Listeners are called
// outside the registry lock and may connect or disconnect listeners.
package signals
