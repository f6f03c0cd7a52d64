package sentiment

import (
	"context"
	"iter"

	"stocksent/internal/domain/social"
	"stocksent/internal/metrics"
	"stocksent/pkg/logger"
)

// EnrichPosts joins a post stream with author metadata, yielding one
// request per post whose owner is known. Posts from unknown owners are
// counted and dropped. The join is strictly order-preserving: one post
// in flight at a time, at most one request out per post.
func EnrichPosts(ctx context.Context, posts iter.Seq2[social.Post, error], users social.UserDataProvider, log *logger.Logger) iter.Seq2[social.SentimentRequest, error] {
	return func(yield func(social.SentimentRequest, error) bool) {
		for post, err := range posts {
			if err != nil {
				yield(social.SentimentRequest{}, err)
				return
			}
			if ctx.Err() != nil {
				return
			}
			metrics.PostsRead.Inc()

			user, ok, err := users.Get(ctx, post.OwnerID)
			if err != nil {
				yield(social.SentimentRequest{}, err)
				return
			}
			if !ok {
				metrics.PostsDropped.WithLabelValues("unknown_owner").Inc()
				log.Debugf("Dropping post from unknown owner %d", post.OwnerID)
				continue
			}

			req := social.SentimentRequest{
				OwnerID:      post.OwnerID,
				MessageText:  post.MessageText,
				CreateTime:   post.CreateTime,
				Level:        user.Level,
				TwoYearGain:  user.TwoYearGain,
				MonthsActive: user.MonthsActive,
			}
			if !yield(req, nil) {
				return
			}
		}
	}
}
