package refdata

const airportsJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [139.7798, 35.5494]},
     "properties": {"id": "RJTT", "name1": "Tokyo Haneda", "type": "civilian"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [135.4382, 34.7855]},
     "properties": {"id": "RJOO", "name1": "Osaka Itami", "type": "civilian"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [139.3483, 35.7485]},
     "properties": {"id": "RJTY", "name1": "Yokota", "type": "military"}}
  ]
}`

const navaidsJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [137.7031, 34.7503]},
     "properties": {"id": "HLC", "name": "HAMAMATSU TACAN", "type": "TACAN", "ch": "46X"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [139.7519, 35.5386]},
     "properties": {"id": "HME", "name": "HANEDA VOR", "type": "VOR", "frequency": "112.2"}}
  ]
}`
