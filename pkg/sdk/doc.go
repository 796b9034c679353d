// Package feedsearch embeds the feed reader search core in a Go program.
//
// The client keeps news items and their containers in Redis and indexes them
// in a local inverted index. Searches see every write once it is committed;
// commits happen in the background or on Flush.
//
//	client, _ := feedsearch.New(ctx,
//	    feedsearch.WithRedis("localhost:6379", ""),
//	    feedsearch.WithIndexPath("/var/lib/feedsearch"),
//	)
//	defer client.Close(ctx)
//
//	_ = client.PutNews(ctx, feedsearch.NewsItem{ID: 1, Title: "Go 1.24 released", BookmarkID: 7})
//	_ = client.Flush(ctx)
//
//	hits, _ := client.Search(ctx, true,
//	    feedsearch.Where("title", "contains", "go"),
//	    feedsearch.Where("state", "is", []feedsearch.State{feedsearch.StateNew, feedsearch.StateUnread}),
//	)
package feedsearch
