// Package graphql exposes the catalog as a read-only GraphQL schema:
//
//	{ products(keyword: "lens", page: 1) { page pages products { id name price } } }
//	{ product(id: "65a1...") { name reviews { name rating } } }
//	{ topProducts { name averageRating } }
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/Rasmogul/greatsoko/app/models"
	"github.com/Rasmogul/greatsoko/app/services"
	"github.com/Rasmogul/greatsoko/pkg/collection"
	gql "github.com/Rasmogul/greatsoko/pkg/graphql"
)

var reviewType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Review",
	Fields: graphql.Fields{
		"user":      &graphql.Field{Type: graphql.String},
		"name":      &graphql.Field{Type: graphql.String},
		"rating":    &graphql.Field{Type: graphql.Int},
		"comment":   &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":            &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"name":          &graphql.Field{Type: graphql.String},
		"sku":           &graphql.Field{Type: graphql.String},
		"category":      &graphql.Field{Type: graphql.String},
		"price":         &graphql.Field{Type: graphql.Float},
		"quantity":      &graphql.Field{Type: graphql.Int},
		"description":   &graphql.Field{Type: graphql.String},
		"image":         &graphql.Field{Type: graphql.String},
		"seller":        &graphql.Field{Type: graphql.String},
		"averageRating": &graphql.Field{Type: graphql.Float},
		"numReviews":    &graphql.Field{Type: graphql.Int},
		"reviews":       &graphql.Field{Type: graphql.NewList(reviewType)},
	},
})

var pageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ProductPage",
	Fields: graphql.Fields{
		"products": &graphql.Field{Type: graphql.NewList(productType)},
		"page":     &graphql.Field{Type: graphql.Int},
		"pages":    &graphql.Field{Type: graphql.Int},
	},
})

// Schema builds the catalog schema over products.
func Schema(products *services.ProductService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"products": &graphql.Field{
				Type: pageType,
				Args: graphql.FieldConfigArgument{
					"keyword": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"page":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					keyword, _ := p.Args["keyword"].(string)
					page, _ := p.Args["page"].(int)
					res, err := products.List(p.Context, keyword, page)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{
						"products": views(res.Products),
						"page":     res.Page,
						"pages":    res.Pages,
					}, nil
				},
			},
			"product": &graphql.Field{
				Type: productType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(string)
					prod, err := products.Get(p.Context, id)
					if err != nil {
						return nil, err
					}
					return view(*prod), nil
				},
			},
			"topProducts": &graphql.Field{
				Type: graphql.NewList(productType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					top, err := products.Top(p.Context)
					if err != nil {
						return nil, err
					}
					return views(top), nil
				},
			},
		},
	})
	return gql.NewSchema(query)
}

func view(p models.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":            p.ID.Hex(),
		"name":          p.Name,
		"sku":           p.SKU,
		"category":      p.Category,
		"price":         p.Price,
		"quantity":      p.Quantity,
		"description":   p.Description,
		"image":         p.Image.URL,
		"seller":        p.Seller,
		"averageRating": p.AverageRating,
		"numReviews":    p.NumReviews,
		"reviews":       collection.Map(p.Reviews, reviewView),
	}
}

func reviewView(r models.Review) map[string]interface{} {
	return map[string]interface{}{
		"user":      r.User.Hex(),
		"name":      r.Name,
		"rating":    r.Rating,
		"comment":   r.Comment,
		"createdAt": r.CreatedAt,
	}
}

func views(ps []models.Product) []map[string]interface{} {
	return collection.Map(ps, view)
}
