package elasticsearch

// DefaultIndexName is the Elasticsearch index used for product documents.
const DefaultIndexName = "products_index"

// indexMapping is the settings and mapping used when the index is created.
// Names are analyzed text with a keyword subfield; prices are stored with
// two decimal places.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "product_text": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "product_id":     { "type": "long" },
      "product_name":   { "type": "text", "analyzer": "product_text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "category_id":    { "type": "long" },
      "category_name":  { "type": "text", "analyzer": "product_text", "fields": { "keyword": { "type": "keyword", "ignore_above": 256 } } },
      "mrp_price":      { "type": "scaled_float", "scaling_factor": 100 },
      "discount_price": { "type": "scaled_float", "scaling_factor": 100 },
      "quantity":       { "type": "integer" }
    }
  }
}`
