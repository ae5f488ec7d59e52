package translate

// Batch is a contiguous group of items submitted to the model in one call.
// Start and End record the ordinal range [Start, End) the batch covers so
// results splice back positionally.
type Batch struct {
	Start int
	End   int
	Items []TranslationItem
}

// MakeBatches splits items into fixed-size contiguous groups; the last group
// may be smaller. len(items) == 0 yields no batches.
func MakeBatches(items []TranslationItem, maxPerBatch int) []Batch {
	if maxPerBatch <= 0 {
		maxPerBatch = DefaultBatchSize
	}

	var batches []Batch
	for i := 0; i < len(items); i += maxPerBatch {
		end := i + maxPerBatch
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, Batch{
			Start: i,
			End:   end,
			Items: items[i:end],
		})
	}
	return batches
}
