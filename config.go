package main

import "time"

const ENV_HTTP_ADDR = "http_addr"
const ENV_DATABASE_NAME = "database_name"
const ENV_API_TOKENS = "api_tokens"
const ENV_PROXY_DSN = "proxy_dsn"
const ENV_LOG_LEVEL = "log_level"

// Primary tweet provider (conventional search API)
const ENV_XAPI_KEY = "xapi_key"
const ENV_XAPI_BASE_URL = "xapi_base_url"

// Secondary tweet provider (generative service with live search)
const ENV_GROK_API_KEY = "grok_api_key"
const ENV_GROK_BASE_URL = "grok_base_url"
const ENV_GROK_MODEL = "grok_model"

// LLM rewrite capability
const ENV_LLM_API_KEY = "llm_api_key"
const ENV_LLM_BASE_URL = "llm_base_url"
const ENV_LLM_MODEL = "llm_model"

// Cache tier names
const CACHE_TIER_LOCAL = "local"
const CACHE_TIER_SHARED = "shared"
const CACHE_TIER_DURABLE = "durable"

// Cache tier expiries, each tier owns its own window
const CACHE_TTL_LOCAL = 5 * time.Minute
const CACHE_TTL_SHARED = 30 * time.Minute
const CACHE_TTL_DURABLE = 2 * time.Hour

// Expired durable rows are kept around for this long so the fallback
// chain can still serve stale data when every provider is down.
const SWEEP_STALE_GRACE = 24 * time.Hour

const MAX_TOPIC_SELECTIONS = 5

// Feed source constants
const FEED_SOURCE_CACHE = "cache"
const FEED_SOURCE_PROVIDER = "provider"
const FEED_SOURCE_STALE_CACHE = "stale_cache"

// Provider names
const PROVIDER_XAPI = "xapi"
const PROVIDER_GROK = "grok"

// Provider failure classes for fallback logging
const FAILURE_CLASS_TIMEOUT = "timeout"
const FAILURE_CLASS_MALFORMED = "malformed"
const FAILURE_CLASS_ERROR = "error"

// Time range filter constants
const TIME_RANGE_DAY = "day"
const TIME_RANGE_WEEK = "week"
const TIME_RANGE_MONTH = "month"

// Enhancement kind constants
const ENHANCEMENT_KIND_EXPAND = "expand"
const ENHANCEMENT_KIND_IMPROVE = "improve"
const ENHANCEMENT_KIND_SHORTEN = "shorten"
const ENHANCEMENT_KIND_CASUAL = "casual"
const ENHANCEMENT_KIND_FORMAL = "formal"

// Machine-readable API error codes
const ERROR_CODE_VALIDATION = "validation_error"
const ERROR_CODE_UNAUTHENTICATED = "unauthenticated"
const ERROR_CODE_PROVIDER_UNAVAILABLE = "provider_unavailable"
const ERROR_CODE_INTERNAL = "internal_error"
