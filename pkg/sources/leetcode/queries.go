package leetcode

import (
	"context"
	"time"

	"github.com/ekaya-inc/ekaya-ingest/pkg/jsonutil"
)

const profileQuery = `query getUserProfile($username: String!) {
  matchedUser(username: $username) {
    username
    profile {
      realName
      aboutMe
      ranking
      reputation
      starRating
    }
    submitStatsGlobal {
      acSubmissionNum {
        difficulty
        count
      }
    }
    badges {
      name
      icon
    }
    activeBadge {
      name
      icon
    }
  }
}`

const recentSubmissionsQuery = `query getRecentSubmissions($username: String!, $limit: Int!) {
  recentAcSubmissionList(username: $username, limit: $limit) {
    id
    title
    titleSlug
    timestamp
    lang
  }
}`

const contestRankingQuery = `query getUserContestRanking($username: String!) {
  userContestRanking(username: $username) {
    attendedContestsCount
    rating
    globalRanking
    topPercentage
  }
}`

const languageStatsQuery = `query languageStats($username: String!) {
  matchedUser(username: $username) {
    languageProblemCount {
      languageName
      problemsSolved
    }
  }
}`

type badge struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

type profileData struct {
	MatchedUser *struct {
		Username string `json:"username"`
		Profile  struct {
			RealName   string             `json:"realName"`
			AboutMe    string             `json:"aboutMe"`
			Ranking    jsonutil.FlexInt   `json:"ranking"`
			Reputation jsonutil.FlexInt   `json:"reputation"`
			StarRating jsonutil.FlexFloat `json:"starRating"`
		} `json:"profile"`
		SubmitStatsGlobal struct {
			AcSubmissionNum []struct {
				Difficulty string           `json:"difficulty"`
				Count      jsonutil.FlexInt `json:"count"`
			} `json:"acSubmissionNum"`
		} `json:"submitStatsGlobal"`
		Badges      []badge `json:"badges"`
		ActiveBadge *badge  `json:"activeBadge"`
	} `json:"matchedUser"`
}

// fetchProfile returns nil, nil when the handle does not exist.
func (c *client) fetchProfile(ctx context.Context, username string) (*Profile, error) {
	var data profileData
	if _, err := c.graphql.Do(ctx, profileQuery, map[string]any{"username": username}, "", &data); err != nil {
		return nil, err
	}
	mu := data.MatchedUser
	if mu == nil {
		return nil, nil
	}

	p := &Profile{
		Username:   mu.Username,
		RealName:   mu.Profile.RealName,
		AboutMe:    mu.Profile.AboutMe,
		Ranking:    mu.Profile.Ranking.Int(),
		Reputation: mu.Profile.Reputation.Int(),
		StarRating: mu.Profile.StarRating.Float(),
		Badges:     make([]string, 0, len(mu.Badges)),
	}
	for _, s := range mu.SubmitStatsGlobal.AcSubmissionNum {
		switch s.Difficulty {
		case "All":
			p.TotalSolved = s.Count.Int()
		case "Easy":
			p.Easy = s.Count.Int()
		case "Medium":
			p.Medium = s.Count.Int()
		case "Hard":
			p.Hard = s.Count.Int()
		}
	}
	for _, b := range mu.Badges {
		p.Badges = append(p.Badges, b.Name)
	}
	if mu.ActiveBadge != nil {
		p.ActiveBadge = mu.ActiveBadge.Name
	}
	return p, nil
}

type recentSubmissionsData struct {
	RecentAcSubmissionList []struct {
		ID        string           `json:"id"`
		Title     string           `json:"title"`
		TitleSlug string           `json:"titleSlug"`
		Timestamp jsonutil.FlexInt `json:"timestamp"`
		Lang      string           `json:"lang"`
	} `json:"recentAcSubmissionList"`
}

func (c *client) fetchRecentSubmissions(ctx context.Context, username string, limit int) ([]Submission, error) {
	var data recentSubmissionsData
	vars := map[string]any{"username": username, "limit": limit}
	if _, err := c.graphql.Do(ctx, recentSubmissionsQuery, vars, "", &data); err != nil {
		return nil, err
	}

	subs := make([]Submission, 0, len(data.RecentAcSubmissionList))
	for _, s := range data.RecentAcSubmissionList {
		subs = append(subs, Submission{
			ID:        s.ID,
			Title:     s.Title,
			TitleSlug: s.TitleSlug,
			Language:  s.Lang,
			Timestamp: time.Unix(int64(s.Timestamp), 0).UTC(),
		})
	}
	return subs, nil
}

type contestRankingData struct {
	UserContestRanking *struct {
		AttendedContestsCount jsonutil.FlexInt   `json:"attendedContestsCount"`
		Rating                jsonutil.FlexFloat `json:"rating"`
		GlobalRanking         jsonutil.FlexInt   `json:"globalRanking"`
		TopPercentage         jsonutil.FlexFloat `json:"topPercentage"`
	} `json:"userContestRanking"`
}

// fetchContestRanking returns nil, nil for an account that never entered a contest.
func (c *client) fetchContestRanking(ctx context.Context, username string) (*ContestRanking, error) {
	var data contestRankingData
	if _, err := c.graphql.Do(ctx, contestRankingQuery, map[string]any{"username": username}, "", &data); err != nil {
		return nil, err
	}
	r := data.UserContestRanking
	if r == nil {
		return nil, nil
	}
	return &ContestRanking{
		AttendedContests: r.AttendedContestsCount.Int(),
		Rating:           r.Rating.Float(),
		GlobalRanking:    r.GlobalRanking.Int(),
		TopPercentage:    r.TopPercentage.Float(),
	}, nil
}

type languageStatsData struct {
	MatchedUser *struct {
		LanguageProblemCount []struct {
			LanguageName   string           `json:"languageName"`
			ProblemsSolved jsonutil.FlexInt `json:"problemsSolved"`
		} `json:"languageProblemCount"`
	} `json:"matchedUser"`
}

func (c *client) fetchLanguageStats(ctx context.Context, username string) (map[string]int, error) {
	var data languageStatsData
	if _, err := c.graphql.Do(ctx, languageStatsQuery, map[string]any{"username": username}, "", &data); err != nil {
		return nil, err
	}

	langs := make(map[string]int)
	if data.MatchedUser == nil {
		return langs, nil
	}
	for _, l := range data.MatchedUser.LanguageProblemCount {
		langs[l.LanguageName] = l.ProblemsSolved.Int()
	}
	return langs, nil
}
