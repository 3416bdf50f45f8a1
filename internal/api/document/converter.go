package document

import "github.com/medassist/claims-backend/internal/entity"

func toQueryResponse(result *entity.QueryResult) *entity.QueryResponse {
	sources := result.Sources
	if sources == nil {
		sources = []entity.Source{}
	}
	return &entity.QueryResponse{
		Answer:  result.Answer,
		Sources: sources,
	}
}
