package feed

const TopicOverlayChanges = "overlay.changes"

// Partition key = record id, supaya semua event 1 record maintain urutan.
func PartitionKey(id string) []byte { return []byte(id) }
