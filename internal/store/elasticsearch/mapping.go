package elasticsearch

// DefaultIndexName is the index used when none is configured.
const DefaultIndexName = "storefront_products"

// buildIndexMapping returns the settings and mapping for the products index.
// name and description share an English analyzer; name.sort is a lowercased
// keyword for name ordering and substring matching.
func buildIndexMapping() string {
	return `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "product_text": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "english_stop", "english_stemmer"]
        }
      },
      "normalizer": {
        "lowercase": {
          "type": "custom",
          "filter": ["lowercase"]
        }
      },
      "filter": {
        "english_stop": {
          "type": "stop",
          "stopwords": "_english_"
        },
        "english_stemmer": {
          "type": "stemmer",
          "language": "light_english"
        }
      }
    }
  },
  "mappings": {
    "dynamic_templates": [
      { "attribute_values": { "path_match": "attributes.*", "match_mapping_type": "string", "mapping": { "type": "keyword" } } }
    ],
    "properties": {
      "id":          { "type": "keyword" },
      "name":        { "type": "text", "analyzer": "product_text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 }, "sort": { "type": "keyword", "normalizer": "lowercase", "ignore_above": 256 } } },
      "description": { "type": "text", "analyzer": "product_text" },
      "price":       { "type": "double" },
      "stock":       { "type": "integer" },
      "image_url":   { "type": "keyword", "index": false },
      "categories":  { "type": "keyword" },
      "attributes": {
        "properties": {
          "size":     { "type": "keyword" },
          "color":    { "type": "keyword" },
          "material": { "type": "keyword" },
          "brand":    { "type": "keyword" }
        }
      },
      "attribute_pairs": { "type": "keyword" },
      "created_at":  { "type": "date" },
      "updated_at":  { "type": "date" }
    }
  }
}`
}
