// Copyright (c) 2026 Kwave. All rights reserved.
// Author: hyeon.sol.kr@gmail.com

package mapping

import "context"

// # Mapping Data Access

// Repository defines the data access contract for article↔entity edges.
type Repository interface {

	/*
		ReplaceForArticle atomically swaps the article's edge set: deletes
		all existing edges for the article and inserts the given ones in a
		single transaction. Edges failing [EntityMapping.Valid] are rejected
		before any write happens.

		Parameters:
		  - context: context.Context
		  - articleID: string
		  - edges: []*EntityMapping (may be empty, which just clears)

		Returns:
		  - error: Validation or transaction failures
	*/
	ReplaceForArticle(context context.Context, articleID string, edges []*EntityMapping) error

	/*
		ListByArticle returns the article's edges, primary first, then by
		descending confidence.
	*/
	ListByArticle(context context.Context, articleID string) ([]*EntityMapping, error)
}
