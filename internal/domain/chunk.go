package domain

// Chunk is an ordered slice of the dataset moved as one unit of work.
// It maintains the invariant that records are sorted by ascending ID and
// that chunks produced by one reader never overlap.
type Chunk struct {
	Records []Record
}

// Size returns the number of records in the chunk.
func (c Chunk) Size() int {
	return len(c.Records)
}

// Empty returns true if the chunk has no records.
func (c Chunk) Empty() bool {
	return len(c.Records) == 0
}

// LastID returns the highest record ID in the chunk, or 0 if empty.
// Readers use it as the keyset cursor for the next page.
func (c Chunk) LastID() int64 {
	if len(c.Records) == 0 {
		return 0
	}
	return c.Records[len(c.Records)-1].ID
}

// SubBatches splits the chunk into consecutive groups of at most size
// records, preserving order. A size <= 0 yields a single group.
func (c Chunk) SubBatches(size int) [][]Record {
	if size <= 0 || len(c.Records) <= size {
		if len(c.Records) == 0 {
			return nil
		}
		return [][]Record{c.Records}
	}
	out := make([][]Record, 0, (len(c.Records)+size-1)/size)
	for start := 0; start < len(c.Records); start += size {
		end := start + size
		if end > len(c.Records) {
			end = len(c.Records)
		}
		out = append(out, c.Records[start:end])
	}
	return out
}
